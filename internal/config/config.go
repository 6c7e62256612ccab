package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// URL modes for embedded media references.
const (
	URLModeServer = "server"
	URLModeLocal  = "local"
)

// Media storage backends.
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "mediamap.toml"

// ColumnConfig maps the media source columns onto the record schema.
type ColumnConfig struct {
	Latitude    string `toml:"latitude"`
	Longitude   string `toml:"longitude"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Media       string `toml:"media"`
	Icon        string `toml:"icon"`
	Color       string `toml:"color"`
	DateTime    string `toml:"datetime"`
	Date        string `toml:"date"`
	Time        string `toml:"time"`
}

// EventColumnConfig maps the event source columns onto the record schema.
type EventColumnConfig struct {
	Latitude    string `toml:"latitude"`
	Longitude   string `toml:"longitude"`
	DateTime    string `toml:"datetime"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Accuracy    string `toml:"accuracy"`
}

// LabelConfig holds the event marker phrase and the display labels.
type LabelConfig struct {
	MarkerPhrase string `toml:"marker_phrase"`
	EventA       string `toml:"event_a"`
	EventB       string `toml:"event_b"`
	Title        string `toml:"title"`
}

// MediaConfig controls how media references are resolved and linked.
type MediaConfig struct {
	Backend     string `toml:"backend"`
	Root        string `toml:"root"`
	URLMode     string `toml:"url_mode"`
	BaseURL     string `toml:"base_url"`
	FallbackDir string `toml:"fallback_dir"`
}

// DatabaseConfig holds PostgreSQL connection settings for table sources.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for media kept in a bucket.
type MinIOConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	PresignExpirySec int
}

// AppConfig is the centralized configuration struct for the application.
// Environment variables seed it, a TOML file may override the mapping and
// display settings, and command flags win last. Credentials never come from
// the TOML file.
type AppConfig struct {
	Input        string            `toml:"input"`
	Output       string            `toml:"output"`
	EventInput   string            `toml:"event_input"`
	Table        string            `toml:"table"`
	Port         string            `toml:"port"`
	Open         bool              `toml:"open"`
	Columns      ColumnConfig      `toml:"columns"`
	EventColumns EventColumnConfig `toml:"event_columns"`
	Labels       LabelConfig       `toml:"labels"`
	Media        MediaConfig       `toml:"media"`
	Database     DatabaseConfig    `toml:"-"`
	MinIO        MinIOConfig       `toml:"-"`
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		Input:      getEnv("MEDIAMAP_INPUT", "media_markers_import.csv"),
		Output:     getEnv("MEDIAMAP_OUTPUT", "media_map_new.html"),
		EventInput: getEnv("MEDIAMAP_EVENT_INPUT", "MasterMapData.csv"),
		Table:      getEnv("MEDIAMAP_TABLE", ""),
		Port:       getEnv("PORT", "8001"),
		Open:       getEnvBool("MEDIAMAP_OPEN", true),
		Columns: ColumnConfig{
			Latitude:    "latitude",
			Longitude:   "longitude",
			Title:       "title",
			Description: "description",
			Media:       "media_path",
			Icon:        "icon",
			Color:       "color",
			DateTime:    "datetime",
			Date:        "date",
			Time:        "time",
		},
		EventColumns: EventColumnConfig{
			Latitude:    "LATITUDE",
			Longitude:   "LONGITUDE",
			DateTime:    "Date-Time CST",
			Title:       "Event",
			Description: "ADDRESS",
			Accuracy:    "ACCURACY IN METERS",
		},
		Labels: LabelConfig{
			MarkerPhrase: getEnv("MEDIAMAP_MARKER_PHRASE", "ATT Location"),
			EventA:       "ATT Location",
			EventB:       "Ankle Monitor Fix",
			Title:        "Location Timeline",
		},
		Media: MediaConfig{
			Backend:     getEnv("MEDIA_BACKEND", BackendLocal),
			Root:        getEnv("MEDIA_ROOT", "."),
			URLMode:     getEnv("MEDIA_URL_MODE", URLModeServer),
			BaseURL:     getEnv("MEDIA_BASE_URL", ""),
			FallbackDir: "Media",
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:         getEnv("MINIO_ENDPOINT", ""),
			AccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:        getEnv("MINIO_SECRET_KEY", ""),
			Bucket:           getEnv("MINIO_BUCKET", ""),
			UseSSL:           getEnvBool("MINIO_USE_SSL", false),
			PresignExpirySec: getEnvInt("MINIO_PRESIGN_EXPIRY_SEC", 7*24*3600),
		},
	}
}

// LoadFile overlays the TOML file at path. Keys absent from the file keep
// their current values. A missing file is not an error when optional is set.
func (c *AppConfig) LoadFile(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated settings.
func (c *AppConfig) Validate() error {
	switch c.Media.URLMode {
	case URLModeServer, URLModeLocal:
	default:
		return fmt.Errorf("invalid media url mode %q: want %q or %q", c.Media.URLMode, URLModeServer, URLModeLocal)
	}
	switch c.Media.Backend {
	case BackendLocal, BackendMinIO:
	default:
		return fmt.Errorf("invalid media backend %q: want %q or %q", c.Media.Backend, BackendLocal, BackendMinIO)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.Input == "" && c.Table == "" {
		return errors.New("an input file or a table is required")
	}
	return nil
}

// MediaBaseURL returns the base for server-relative media URLs.
func (c *AppConfig) MediaBaseURL() string {
	if c.Media.BaseURL != "" {
		return c.Media.BaseURL
	}
	return "http://localhost:" + c.Port
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
