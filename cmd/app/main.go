package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bharathakku/delivery-backend/cmd"

	"github.com/labstack/gommon/log"
	"github.com/newrelic/go-agent/v3/newrelic"
)

func main() {
	configs := cmd.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	nrApp := startNewRelic(configs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger, nrApp)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Errorf("failed to close resources: %v", err)
		}
	}()

	warmed, err := app.WarmUp(ctx)
	if err != nil {
		log.Fatalf("failed to warm geo index: %v", err)
	}
	log.Infof("geo index warmed with %d drivers", warmed)

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(ctx, app, configs.HTTPPort)

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}
}

func startNewRelic(configs cmd.Config) *newrelic.Application {
	if !configs.NewRelicEnabled {
		return nil
	}
	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(configs.NewRelicAppName),
		newrelic.ConfigLicense(configs.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		log.Warnf("new relic disabled: %v", err)
		return nil
	}
	return nrApp
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string) {
	e, err := app.CreateRouter(ctx)
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}
	e.Logger.SetLevel(log.INFO)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()
	log.Infof("listening on :%s", port)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server stopped: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http server shutdown: %v", err)
	}
}
