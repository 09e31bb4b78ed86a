package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/marketplace/api/openapi"
	"github.com/donaldgifford/marketplace/internal/api/handlers"
	"github.com/donaldgifford/marketplace/internal/api/middleware"
	"github.com/donaldgifford/marketplace/internal/command"
	"github.com/donaldgifford/marketplace/internal/telemetry"
	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

const gatewayTitle = "Marketplace Tool Gateway"

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the command registry over HTTP",
		Long: "Starts an HTTP gateway exposing GET /v1/commands and\n" +
			"POST /v1/commands/{name}, plus /healthz, /readyz and /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.runServe(cmd.Context()); err != nil {
				return &exitError{code: ExitError, err: err}
			}
			return nil
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	log := a.logger(a.cfg.Logging.Level)

	shutdownTelemetry, err := telemetry.Setup(ctx, &a.cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	d := a.dispatcher(log)
	prober := marketplace.New(d.ResolveBaseURL(""), a.clientOptions()...)
	e := newGateway(d, prober, log)

	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	addr := a.cfg.Server.Addr()
	log.Info("starting gateway", "addr", addr, "marketplace", prober.BaseURL())

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("gateway server: %w", err)
		}
	case <-sigCtx.Done():
	}

	log.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}

	log.Info("gateway stopped")
	return nil
}

// newGateway wires middleware, probes, metrics and the huma command routes.
func newGateway(d *command.Dispatcher, prober handlers.Prober, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics(d.Registry()))

	health := handlers.NewHealthHandler(prober)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig(gatewayTitle, Version))
	handlers.RegisterCommandRoutes(api, handlers.NewCommandHandler(d))
	openapi.RegisterRoutes(e, gatewayTitle)

	return e
}
