package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("PORT", "9000")
	t.Setenv("MEDIAMAP_OPEN", "false")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.Open)
	assert.Equal(t, "latitude", cfg.Columns.Latitude)
	assert.Equal(t, "Date-Time CST", cfg.EventColumns.DateTime)
	assert.Equal(t, "ATT Location", cfg.Labels.MarkerPhrase)
	assert.Equal(t, "http://localhost:9000", cfg.MediaBaseURL())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mediamap.toml")
	content := `
output = "out.html"

[columns]
latitude = "lat"
longitude = "lng"

[labels]
marker_phrase = "Carrier Fix"

[media]
url_mode = "local"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Load()
	require.NoError(t, cfg.LoadFile(path, false))

	assert.Equal(t, "out.html", cfg.Output)
	assert.Equal(t, "lat", cfg.Columns.Latitude)
	assert.Equal(t, "lng", cfg.Columns.Longitude)
	// keys absent from the file keep their defaults
	assert.Equal(t, "title", cfg.Columns.Title)
	assert.Equal(t, "Carrier Fix", cfg.Labels.MarkerPhrase)
	assert.Equal(t, "Ankle Monitor Fix", cfg.Labels.EventB)
	assert.Equal(t, URLModeLocal, cfg.Media.URLMode)
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Load()
	missing := filepath.Join(t.TempDir(), "nope.toml")

	assert.NoError(t, cfg.LoadFile(missing, true))
	assert.Error(t, cfg.LoadFile(missing, false))
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("columns = [\n"), 0o600))

	err := Load().LoadFile(path, false)
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *AppConfig) {}},
		{name: "bad url mode", mutate: func(c *AppConfig) { c.Media.URLMode = "cdn" }, wantErr: true},
		{name: "bad backend", mutate: func(c *AppConfig) { c.Media.Backend = "s3" }, wantErr: true},
		{name: "bad port", mutate: func(c *AppConfig) { c.Port = "http" }, wantErr: true},
		{name: "no input", mutate: func(c *AppConfig) { c.Input = ""; c.Table = "" }, wantErr: true},
		{name: "table only", mutate: func(c *AppConfig) { c.Input = ""; c.Table = "points" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			cfg.Port = "8001"
			cfg.Media.URLMode = URLModeServer
			cfg.Media.Backend = BackendLocal
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	t.Setenv(key, "value")

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	t.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	t.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	t.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	t.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	t.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))
}
