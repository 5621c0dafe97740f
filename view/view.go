package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/diewo77/invoice-web/i18n"
	"github.com/diewo77/invoice-web/internal/invoice"
	"github.com/shopspring/decimal"
)

//go:embed templates
var embedded embed.FS

// Templates returns the embedded template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer parses page templates against layout.html and caches them.
// In dev mode every render re-parses so template edits show up at once.
type Renderer struct {
	fsys  fs.FS
	dev   bool
	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New returns a renderer over fsys, or over the embedded templates when
// fsys is nil.
func New(fsys fs.FS, dev bool) *Renderer {
	if fsys == nil {
		fsys = Templates()
	}
	return &Renderer{fsys: fsys, dev: dev, cache: map[string]*template.Template{}}
}

// Funcs returns the func map for lang. Templates are parsed with the
// default language and re-bound per request.
func Funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"money": func(v any) string {
			switch n := v.(type) {
			case decimal.Decimal:
				return n.StringFixed(2)
			case float64:
				return decimal.NewFromFloat(n).StringFixed(2)
			case int:
				return decimal.NewFromInt(int64(n)).StringFixed(2)
			case int64:
				return decimal.NewFromInt(n).StringFixed(2)
			default:
				return fmt.Sprint(v)
			}
		},
		"num": invoice.FormatNumber,
		"lineTotal": func(ln invoice.LineItem) string {
			return invoice.LineTotal(ln).StringFixed(2)
		},
		"describe": func(ln invoice.LineItem, names invoice.NameLookup) string {
			return invoice.Describe(ln, names)
		},
		"idval": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"add":  func(a, b int) int { return a + b },
		"year": func() int { return time.Now().Year() },
		// dict creates a map from key-value pairs for passing to sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func (v *Renderer) parse(name string) (*template.Template, error) {
	page, err := fs.ReadFile(v.fsys, name)
	if err != nil {
		return nil, err
	}
	funcs := Funcs(i18n.Default)
	// A page that is a full document skips the layout.
	if bytes.Contains(bytes.ToLower(page), []byte("<!doctype")) {
		return template.New(path.Base(name)).Funcs(funcs).Parse(string(page))
	}
	return template.New("layout.html").Funcs(funcs).ParseFS(v.fsys, "layout.html", name)
}

func (v *Renderer) lookup(name string) (*template.Template, error) {
	if !v.dev {
		v.mu.RLock()
		t, ok := v.cache[name]
		v.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := v.parse(name)
	if err != nil {
		return nil, err
	}
	if !v.dev {
		v.mu.Lock()
		v.cache[name] = t
		v.mu.Unlock()
	}
	return t, nil
}

// Render executes the page name (e.g. "invoices/edit.html") with data. The
// page is buffered so a template error never leaves a half-written reply.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	base, err := v.lookup(name)
	if err != nil {
		return err
	}
	lang := i18n.LangFromContext(r.Context())
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(lang))

	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	data["Lang"] = lang

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
