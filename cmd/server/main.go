package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/valeevte/PriceTracker/internal/api"
	"github.com/valeevte/PriceTracker/internal/cache"
	"github.com/valeevte/PriceTracker/internal/config"
	"github.com/valeevte/PriceTracker/internal/database"
	"github.com/valeevte/PriceTracker/internal/extractor"
	"github.com/valeevte/PriceTracker/internal/logger"
	"github.com/valeevte/PriceTracker/internal/notify"
	"github.com/valeevte/PriceTracker/internal/products"
	"github.com/valeevte/PriceTracker/internal/scheduler"
	"github.com/valeevte/PriceTracker/internal/tracker"
)

func main() {
	_ = godotenv.Load() // load .env if present; not fatal if missing

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	// graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s product store: %w", cfg.DBDriver, err)
	}
	defer closeStore()

	var runs interface {
		scheduler.SummarySink
		api.RunReader
	} = &cache.Memory{}
	if cfg.Redis.Addr != "" {
		rs, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("initialize cache: %w", err)
		}
		defer rs.Close()
		runs = rs
	}

	var sender notify.Sender = notify.LogSender{Logger: log}
	if cfg.Mail.Host != "" {
		m, err := notify.NewMailer(cfg.Mail)
		if err != nil {
			return fmt.Errorf("initialize mailer: %w", err)
		}
		sender = m
	} else {
		log.Warn("SMTP_HOST not set, notifications are logged only")
	}
	notifier := notify.NewNotifier(sender)
	ex := extractor.New(cfg.Extractor)

	tr := tracker.New(repo, ex, notifier, cfg.Tracker, log)
	trigger := scheduler.NewTrigger(tr, runs, cfg.Scheduler, log)

	// start scheduler
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		// scheduler runs until ctx is cancelled
		scheduler.Run(ctx, trigger)
	}()

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	api.NewHandler(repo, ex, notifier, trigger, runs, log).Register(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// the cron route runs for up to the run budget
		WriteTimeout: cfg.Scheduler.MaxDuration + 10*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	// wait for interrupt
	<-ctx.Done()
	log.Info("shutdown signal received")

	// stop accepting new requests, allow 15s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server Shutdown", "error", err)
	}

	// wait scheduler to finish (it reacts to ctx)
	wg.Wait()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	default:
	}
	log.Info("graceful shutdown complete")
	return nil
}

// openStore opens the configured product store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (products.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return products.NewSQLiteRepository(db), func() { closeDB(db) }, nil
	default:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return products.NewRepository(pool), pool.Close, nil
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("close sqlite", "error", err)
	}
}
