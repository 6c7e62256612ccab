package handler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the read-only file server routes.
type Options struct {
	// Root is the directory served. Defaults to the working directory.
	Root string
	// Document is the generated map, relative to Root.
	Document string
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches the probe, metrics and static routes to app.
// Only GET and HEAD are routed; other methods get 405.
func RegisterRoutes(app *fiber.App, opts Options) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	doc := strings.TrimLeft(filepath.ToSlash(opts.Document), "/")

	app.Get("/health", HealthCheck(filepath.Join(root, filepath.FromSlash(doc))))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if doc != "" {
		app.Get("/", func(c *fiber.Ctx) error {
			return c.Redirect("/"+doc, fiber.StatusFound)
		})
	}

	// ByteRange lets browsers seek inside videos.
	app.Static("/", root, fiber.Static{
		ByteRange: true,
		Browse:    false,
	})
}

// HealthCheck reports healthy while the generated document exists.
func HealthCheck(docPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := os.Stat(docPath)
		if err != nil || info.IsDir() {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", errorCodes[fiber.StatusServiceUnavailable].message)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"document": filepath.Base(docPath),
		})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
