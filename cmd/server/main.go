package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/diewo77/invoice-web/internal/catalog"
	"github.com/diewo77/invoice-web/internal/config"
	"github.com/diewo77/invoice-web/internal/db"
	"github.com/diewo77/invoice-web/internal/handlers"
	"github.com/diewo77/invoice-web/internal/metrics"
	"github.com/diewo77/invoice-web/internal/session"
	"github.com/diewo77/invoice-web/view"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run session DB migrations and exit")

const (
	catalogTTL   = 5 * time.Minute
	saveGuardTTL = 2 * time.Minute
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := config.NewLogger(cfg.App.LogLevel, os.Stdout)

	if *migrateOnlyFlag {
		dbConn, err := db.Open(cfg.Database, cfg.App, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		if err := db.Migrate(dbConn, cfg.Database, cfg.App); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, guard, stop, err := buildSessionBackend(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("session store unavailable")
	}
	defer stop()

	sessions := auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL, !cfg.App.Dev)
	manager := session.NewManager(store, cfg.Session.TTL, log)
	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
		Metrics: m,
	}, manager)

	deps := &handlers.Deps{
		API:      api,
		Sessions: sessions,
		Auth:     manager,
		Catalog:  catalog.New(api, catalogTTL, log),
		Guard:    guard,
		View:     view.New(nil, cfg.App.Dev),
		Metrics:  m,
		Log:      log,
	}
	appHandler := NewApp(deps, reg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(log, m, appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":  cfg.Server.Port,
			"dev":   cfg.App.Dev,
			"store": cfg.Session.Store,
			"api":   cfg.API.BaseURL,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}

// buildSessionBackend picks the session store and save guard named by
// SESSION_STORE. stop releases whatever was opened.
func buildSessionBackend(cfg *config.Config, log *logrus.Logger) (session.Store, session.Guard, func(), error) {
	switch cfg.Session.Store {
	case "memory":
		return session.NewMemoryStore(), session.NewLocalGuard(), func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr, DB: cfg.Session.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, err
		}
		log.WithField("addr", cfg.Session.RedisAddr).Info("redis session store connected")
		return session.NewRedisStore(rdb, "invoice-web:session:"),
			session.NewRedisGuard(rdb, "invoice-web:lock:", saveGuardTTL),
			func() { _ = rdb.Close() },
			nil

	default:
		dbConn, err := db.Open(cfg.Database, cfg.App, log)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(dbConn, cfg.Database, cfg.App); err != nil {
			return nil, nil, nil, err
		}
		store := session.NewGormStore(dbConn)
		purge := schedulePurge(store, log)
		return store, session.NewLocalGuard(), func() {
			<-purge.Stop().Done()
			closeDB(dbConn, log)
		}, nil
	}
}

// schedulePurge deletes expired session rows every hour.
func schedulePurge(store *session.GormStore, log logrus.FieldLogger) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := store.Purge(ctx)
		if err != nil {
			config.LogError(log, "main", "schedulePurge", nil, err)
			return
		}
		if n > 0 {
			log.WithField("rows", n).Info("expired sessions purged")
		}
	})
	c.Start()
	return c
}

func closeDB(dbConn *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := dbConn.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}
