// Package db opens the session database and keeps its schema current.
package db

import (
	"embed"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/diewo77/invoice-web/internal/config"
	"github.com/diewo77/invoice-web/internal/session"
	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the database drivers for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var passwordRe = regexp.MustCompile(`(password=|://[^:/@]+:)([^\s@]+)`)

// MaskDSN hides the password of a key=value or URL style DSN.
func MaskDSN(dsn string) string {
	return passwordRe.ReplaceAllString(dsn, `${1}***`)
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.Open(cfg.SQLitePath), cfg.SQLitePath, nil
	case "postgres":
		return postgres.Open(cfg.DSN()), cfg.DSN(), nil
	default:
		return nil, "", fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}
}

// Open connects with retries so the app can start alongside its database.
func Open(cfg config.DatabaseConfig, app config.AppConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	dial, dsn, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	level := logger.Silent
	if app.DBDebug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var db *gorm.DB
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(dial, gcfg)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", i+1).Warn("retrying database connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.WithFields(logrus.Fields{"driver": cfg.Driver, "dsn": MaskDSN(dsn)}).Info("database connected")
	return db, nil
}

// Migrate applies the embedded SQL migrations when app.Migrations is set and
// falls back to AutoMigrate otherwise.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, app config.AppConfig) error {
	if app.Migrations {
		if err := runSQLMigrations(cfg); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := db.AutoMigrate(&session.Entry{}); err != nil {
		return fmt.Errorf("automigrate %T: %w", &session.Entry{}, err)
	}
	if !db.Migrator().HasTable(&session.Entry{}) {
		return errors.New("missing table after migration: session_entries")
	}
	return nil
}

func migrateURL(cfg config.DatabaseConfig) string {
	if cfg.Driver == "postgres" {
		return cfg.URL()
	}
	return "sqlite3://" + cfg.SQLitePath
}

func runSQLMigrations(cfg config.DatabaseConfig) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(cfg))
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
