package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"decisionsim/adapters/sqlstore"
	"decisionsim/internal"
	"decisionsim/internal/api"
	"decisionsim/internal/config"
)

func main() {
	logger := internal.NewDefaultLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)).Named("collector")
	gin.SetMode(cfg.Server.GinMode)

	// The collector always needs SQL; without a database URL it keeps a
	// sqlite file next to the participant data.
	driver, dsn := cfg.Storage.Driver, cfg.Storage.DatabaseURL
	if driver != config.DriverPostgres && driver != config.DriverSQLite {
		if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
			logger.Error("failed to create %s: %v", cfg.Storage.Path, err)
			os.Exit(1)
		}
		driver, dsn = config.DriverSQLite, filepath.Join(cfg.Storage.Path, "collector.db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		logger.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	handler := api.NewCollectorHandler(sqlstore.NewCollectorRepository(db), logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.CollectorPort,
		Handler:           api.NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("collector listening on port %s (%s)", cfg.Server.CollectorPort, driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("collector stopped: %v", err)
		os.Exit(1)
	}
}
