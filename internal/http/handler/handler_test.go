package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHealthCheck(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "map.html")

	app := fiber.New()
	app.Get("/health", HealthCheck(doc))

	t.Run("unhealthy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("healthy", func(t *testing.T) {
		writeFile(t, doc, "<html></html>")

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "map.html", body["document"])
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func newApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "map.html"), "<html>map</html>")
	writeFile(t, filepath.Join(dir, "Media", "day one", "a.jpg"), "jpegdata")

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "mediamap_test_total", Help: "test"}))

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})
	RegisterRoutes(app, Options{Root: dir, Document: "map.html", Gatherer: reg})
	return app, dir
}

func TestRouting(t *testing.T) {
	app, _ := newApp(t)

	t.Run("root redirects to document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/map.html", resp.Header.Get("Location"))
	})

	t.Run("serves document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/map.html", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "<html>map</html>", string(body))
	})

	t.Run("serves escaped media path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/Media/day%20one/a.jpg", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "jpegdata", string(body))
	})

	t.Run("byte range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/Media/day%20one/a.jpg", nil)
		req.Header.Set("Range", "bytes=0-3")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "jpeg", string(body))
	})

	t.Run("metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "mediamap_test_total")
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent.html", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}

func TestRegisterRoutes_NoDocument(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, Options{Root: t.TempDir(), Gatherer: prometheus.NewRegistry()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, _ := app.Test(req)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
