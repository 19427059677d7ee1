// Package serve implements the serve command, running the HTTP API, the
// event bus and the notification pipeline.
package serve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/john-samurai/birdtag-go/internal/aggregator"
	api "github.com/john-samurai/birdtag-go/internal/api/v1"
	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/detector"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/ingest"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/notify"
	"github.com/john-samurai/birdtag-go/internal/objectstore"
	"github.com/john-samurai/birdtag-go/internal/observability"
	"github.com/john-samurai/birdtag-go/internal/sampler"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the media tagging service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
		if err != nil {
			logger.Warn("service log file unavailable", "path", settings.Main.Log.Path, "error", err)
		} else {
			defer func() { _ = closeLog() }()
			logger = fileLogger
		}
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no datastore backend enabled")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing datastore", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	detector.SetMetrics(metrics)

	objects, err := objectstore.NewFSStore(&settings.ObjectStore)
	if err != nil {
		return fmt.Errorf("initializing object store: %w", err)
	}

	notifier, err := notify.FromSettings(&settings.Notify)
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}
	if closer, ok := notifier.(interface{ Close() }); ok {
		defer closer.Close()
	}

	bus := events.NewBus(events.DefaultConfig())
	if err := bus.RegisterConsumer(notify.NewConsumer(store, notifier, metrics)); err != nil {
		return fmt.Errorf("registering notification consumer: %w", err)
	}
	defer func() {
		if err := bus.Shutdown(shutdownTimeout); err != nil {
			logger.Error("event bus shutdown", "error", err)
		}
	}()

	det := detector.NewHTTPDetector(&settings.Detector)
	agg := aggregator.New(det, sampler.New(settings.Sampler.PerSecond), settings.Detector.Threshold)
	service := ingest.NewService(store, objects, agg, nil, bus, &settings.ObjectStore, metrics)
	workers := ingest.NewWorkers(service, settings.Server.IngestWorkers)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	api.New(e, store, settings, objects, bus, metrics)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.POST("/api/v1/ingest", ingestHandler(workers))

	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(":" + settings.Server.Port); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	logger.Info("server started", "port", settings.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// ingestHandler accepts an object storage notification envelope and runs the
// ingest worker pool over its records.
func ingestHandler(workers *ingest.Workers) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		payload, err := io.ReadAll(ctx.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "reading request body")
		}

		objectEvents, err := ingest.ParseObjectEvent(payload)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		if err := workers.Run(ctx.Request().Context(), objectEvents); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return ctx.JSON(http.StatusOK, map[string]int{"processed": len(objectEvents)})
	}
}
