package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"decisionsim/internal"
	"decisionsim/internal/config"
	"decisionsim/internal/container"
	"decisionsim/ui"
)

func main() {
	logger := internal.NewDefaultLogger()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger = internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		logger.Error("failed to create application container: %v", err)
		os.Exit(1)
	}
	defer appContainer.Shutdown(context.Background())

	// Resume or start the session before taking traffic
	if _, err := appContainer.Sessions.Start(ctx); err != nil {
		logger.Error("failed to start session: %v", err)
		os.Exit(1)
	}

	server, err := ui.NewApp(ui.Services{
		Sessions: appContainer.Sessions,
		Groups:   appContainer.Groups,
		Reports:  appContainer.Reports,
		History:  appContainer.History,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize server: %v", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting decisionsim on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
