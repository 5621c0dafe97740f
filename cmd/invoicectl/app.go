package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/catalog"
	"github.com/diewo77/invoice-web/internal/config"
	"github.com/diewo77/invoice-web/internal/db"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/diewo77/invoice-web/internal/pdf"
	"github.com/diewo77/invoice-web/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// cliSession is the fixed session id the CLI stores its login under.
const cliSession = "invoicectl"

var errNotSignedIn = errors.New("not signed in; run `invoicectl login` first")

func newApp() *cli.App {
	return &cli.App{
		Name:  "invoicectl",
		Usage: "manage invoices on the remote invoicing API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the invoicing API",
				EnvVars: []string{"API_BASE_URL"},
				Value:   config.Load().API.BaseURL,
			},
			&cli.StringFlag{
				Name:    "state",
				Usage:   "sqlite file holding the CLI login",
				EnvVars: []string{"INVOICECTL_STATE"},
				Value:   defaultStatePath(),
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and remember the token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"INVOICECTL_PASSWORD"}},
					&cli.BoolFlag{Name: "remember", Value: true},
				},
				Action: loginAction,
			},
			{
				Name:   "logout",
				Usage:  "forget the stored token",
				Action: logoutAction,
			},
			{
				Name:  "items",
				Usage: "catalog items",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list items", Action: itemsListAction},
				},
			},
			{
				Name:  "invoices",
				Usage: "remote invoices",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list invoices", Action: invoicesListAction},
					{Name: "show", Usage: "show one invoice", ArgsUsage: "<id>", Action: invoicesShowAction},
					{
						Name:      "pdf",
						Usage:     "export one invoice as PDF",
						ArgsUsage: "<id>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default invoice-<no>.pdf)"},
						},
						Action: invoicesPDFAction,
					},
				},
			},
			{
				Name:      "totals",
				Usage:     "recompute the totals of an invoice JSON file",
				ArgsUsage: "<file>",
				Action:    totalsAction,
			},
			{
				Name:      "normalize",
				Usage:     "print the canonical save payload of an invoice JSON file",
				ArgsUsage: "<file>",
				Action:    normalizeAction,
			},
		},
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "invoicectl.db"
	}
	return filepath.Join(dir, "invoicectl", "state.db")
}

// env is what the remote commands share.
type env struct {
	ctx     context.Context
	api     *apiclient.Client
	manager *session.Manager
	log     *logrus.Logger
	db      *gorm.DB
}

// close releases the state database.
func (e *env) close() {
	sqlDB, err := e.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		e.log.WithError(err).Warn("closing state database")
	}
}

func openEnv(c *cli.Context) (*env, error) {
	log := config.NewLogger(c.String("log-level"), c.App.ErrWriter)
	path := c.String("state")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbCfg := config.DatabaseConfig{Driver: "sqlite", SQLitePath: path}
	conn, err := db.Open(dbCfg, config.AppConfig{}, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, dbCfg, config.AppConfig{}); err != nil {
		if sqlDB, derr := conn.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	manager := session.NewManager(session.NewGormStore(conn), 0, log)
	api := apiclient.New(apiclient.Config{BaseURL: c.String("api"), Logger: log}, manager)
	return &env{
		ctx:     auth.WithSessionID(c.Context, cliSession),
		api:     api,
		manager: manager,
		log:     log,
		db:      conn,
	}, nil
}

// signedIn opens the environment and checks that a token is stored.
func signedIn(c *cli.Context) (*env, error) {
	e, err := openEnv(c)
	if err != nil {
		return nil, err
	}
	if !e.manager.SignedIn(e.ctx) {
		e.close()
		return nil, errNotSignedIn
	}
	return e, nil
}

func loginAction(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()
	res, err := e.api.Login(e.ctx, c.String("email"), c.String("password"), c.Bool("remember"))
	if err != nil {
		return errors.New(apiclient.UserMessage(err, "login failed"))
	}
	if err := e.manager.Save(e.ctx, cliSession, session.AuthState{Token: res.Token, User: res.User, Company: res.Company}); err != nil {
		return err
	}
	name := c.String("email")
	if res.User != nil && res.User.FirstName != "" {
		name = res.User.FirstName
	}
	fmt.Fprintf(c.App.Writer, "signed in as %s\n", name)
	return nil
}

func logoutAction(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.manager.Clear(e.ctx, cliSession); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "signed out")
	return nil
}

func itemsListAction(c *cli.Context) error {
	e, err := signedIn(c)
	if err != nil {
		return err
	}
	defer e.close()
	items, err := e.api.ListItems(e.ctx)
	if err != nil {
		return remoteErr(err)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRATE\tDISC %")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", it.ItemID, it.ItemName, invoice.FormatNumber(it.SalesRate), invoice.FormatNumber(it.DiscountPct))
	}
	return tw.Flush()
}

func invoicesListAction(c *cli.Context) error {
	e, err := signedIn(c)
	if err != nil {
		return err
	}
	defer e.close()
	list, err := e.api.ListInvoices(e.ctx)
	if err != nil {
		return remoteErr(err)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNO\tDATE\tCUSTOMER\tAMOUNT")
	for _, inv := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", inv.InvoiceID, inv.InvoiceNo, inv.InvoiceDate, inv.CustomerName, inv.InvoiceAmount)
	}
	return tw.Flush()
}

func argID(c *cli.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid invoice id %q", c.Args().First())
	}
	return id, nil
}

func invoicesShowAction(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	e, err := signedIn(c)
	if err != nil {
		return err
	}
	defer e.close()
	d, err := e.api.LoadInvoice(e.ctx, id)
	if err != nil {
		return remoteErr(err)
	}
	return printDraft(c.App.Writer, d, e.names())
}

func invoicesPDFAction(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	e, err := signedIn(c)
	if err != nil {
		return err
	}
	defer e.close()
	d, err := e.api.LoadInvoice(e.ctx, id)
	if err != nil {
		return remoteErr(err)
	}
	out := c.String("out")
	if out == "" {
		no := d.InvoiceNo
		if no == "" {
			no = strconv.FormatInt(id, 10)
		}
		out = "invoice-" + no + ".pdf"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	st, _ := e.manager.Current(e.ctx)
	if err := pdf.Invoice(f, d, e.names(), st.Company); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, out)
	return nil
}

// names resolves item ids through the catalog of the signed-in company.
func (e *env) names() invoice.NameLookup {
	var company int64
	if st, ok := e.manager.Current(e.ctx); ok && st.Company != nil {
		company = st.Company.CompanyID
	}
	return catalog.New(e.api, time.Minute, e.log).Names(e.ctx, company)
}

func readArgFile(c *cli.Context) ([]byte, error) {
	name := c.Args().First()
	if name == "" {
		return nil, errors.New("missing file argument")
	}
	if name == "-" {
		return io.ReadAll(c.App.Reader)
	}
	return os.ReadFile(name)
}

func totalsAction(c *cli.Context) error {
	raw, err := readArgFile(c)
	if err != nil {
		return err
	}
	d, err := invoice.Load(raw)
	if err != nil {
		return err
	}
	d.Recompute()
	return printDraft(c.App.Writer, d, nil)
}

func normalizeAction(c *cli.Context) error {
	raw, err := readArgFile(c)
	if err != nil {
		return err
	}
	p, err := invoice.Normalize(raw)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func printDraft(w io.Writer, d *invoice.Draft, names invoice.NameLookup) error {
	fmt.Fprintln(w, d.Title())
	if d.CustomerName != "" {
		fmt.Fprintf(w, "Customer: %s\n", d.CustomerName)
	}
	if d.InvoiceDate != "" {
		fmt.Fprintf(w, "Date:     %s\n", d.InvoiceDate)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tITEM\tQTY\tRATE\tDISC %\tTOTAL\t")
	for _, ln := range d.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			ln.RowNo, invoice.Describe(ln, names), invoice.FormatNumber(ln.Quantity),
			invoice.FormatNumber(ln.Rate), invoice.FormatNumber(ln.DiscountPct),
			invoice.LineTotal(ln).StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Subtotal: %.2f\n", d.SubTotal)
	fmt.Fprintf(w, "Tax (%s%%): %.2f\n", invoice.FormatNumber(d.TaxPercent), d.TaxAmount)
	fmt.Fprintf(w, "Total:    %.2f\n", d.InvoiceAmount)
	return nil
}

// remoteErr surfaces the API's own message and points at login on a 401.
func remoteErr(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return errNotSignedIn
	}
	return errors.New(apiclient.UserMessage(err, "request failed"))
}
