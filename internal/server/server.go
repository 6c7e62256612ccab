// Package server assembles the read-only fiber app that serves the generated
// map and its media directory.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"

	handlers "mediamap/internal/http/handler"
	"mediamap/internal/http/middleware"
	"mediamap/internal/logging"
)

// ShutdownTimeout bounds the graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Config describes what the server exposes.
type Config struct {
	Root     string
	Document string
	// Registry receives the request metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
}

// New builds the fiber app with the middleware chain and routes.
func New(cfg Config) (*fiber.App, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(prom.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD,OPTIONS",
	}))
	app.Use(middleware.NoStore())

	handlers.RegisterRoutes(app, handlers.Options{
		Root:     cfg.Root,
		Document: cfg.Document,
		Gatherer: reg,
	})
	return app, nil
}

// Run serves app on ln until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listener(ln)
	}()
	logging.Info("server", "server_started", logging.Fields{"addr": ln.Addr().String()})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("server", "server_stopped", logging.Fields{"addr": ln.Addr().String()})
	return <-errCh
}

// Listen opens the TCP listener for port on all interfaces.
func Listen(port string) (net.Listener, error) {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen on port %s: %w", port, err)
	}
	return ln, nil
}
