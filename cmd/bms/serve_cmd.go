package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"bms/internal/common"
	"bms/internal/config"
	"bms/internal/handlers"
	"bms/internal/jobs/background"
	"bms/internal/middleware"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled status sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var scheduler *background.JobScheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = background.NewJobScheduler(cfg.Scheduler.SyncCron, cfg.Location(), a.status, a.log.WithField("component", "scheduler"))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				a.log.WithError(err).Warn("scheduler shutdown")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
	}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	versions, err := newVersionMiddleware(cfg.Server)
	if err != nil {
		return err
	}
	e.Pre(versions.APIVersionResolver())

	var jobs handlers.JobRunner
	if scheduler != nil {
		jobs = scheduler
	}
	h := &handlers.Handlers{
		Health:    handlers.NewHealthHandlers(a.pool, a.cache, a.archive, jobs, cfg.Server.Version),
		Dashboard: handlers.NewDashboardHandlers(a.dashboard),
		Flats:     handlers.NewFlatHandlers(a.flats, a.occupancy, a.export, cfg.Location()),
		Owners:    handlers.NewPeopleHandlers(a.owners),
		Lessees:   handlers.NewPeopleHandlers(a.lessees),
		Parking:   handlers.NewParkingHandlers(a.parking, cfg.Location()),
		Providers: handlers.NewProviderHandlers(a.providers),
		Tools:     handlers.NewToolsHandlers(a.importer, a.status),
	}
	if jobs != nil {
		h.Jobs = handlers.NewJobHandlers(jobs)
	}
	handlers.RegisterRoutes(e, versions, middleware.NewAuditMiddleware(a.log.WithField("component", "audit")), h)

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", cfg.Server.Port).Info("bms server starting")
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newVersionMiddleware serves the configured version, deprecated when a
// sunset date is set.
func newVersionMiddleware(server config.ServerConfig) (*middleware.VersionMiddleware, error) {
	version := server.Version
	if version == "" {
		version = "v1"
	}
	versions := middleware.NewVersionMiddleware(version)
	sunset, err := server.SunsetDate()
	if err != nil {
		return nil, err
	}
	if sunset != nil {
		msg := server.DeprecationMessage
		if msg == "" {
			msg = "This API version is deprecated"
		}
		versions.Deprecate(version, msg, sunset)
	}
	return versions, nil
}
