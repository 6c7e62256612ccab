// Package cli implements the mediamap command tree.
package cli

import (
	"context"
	"database/sql"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"mediamap/internal/config"
	"mediamap/internal/database"
	"mediamap/internal/document"
	"mediamap/internal/launcher"
	"mediamap/internal/logging"
	"mediamap/internal/server"
	"mediamap/internal/service"
	"mediamap/internal/storage"
)

// version is set at build time with -ldflags "-X mediamap/internal/cli.version=...".
var version = "dev"

// app carries the loaded configuration and the side-effecting collaborators
// the commands use, so tests can replace them.
type app struct {
	cfg        *config.AppConfig
	configPath string
	verbose    bool

	openBrowser func(url string) error
	portInUse   func(port string) bool
	openDB      func(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error)
	mediaStore  func(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error)
	uploader    func(ctx context.Context, c config.MinIOConfig) (storage.Uploader, error)
	runServer   func(ctx context.Context, app *fiber.App, ln net.Listener) error
	newService  func(cfg *config.AppConfig, store storage.Storage, asm *document.Assembler) service.MapService
}

func newApp() *app {
	return &app{
		openBrowser: launcher.Open,
		portInUse:   launcher.PortInUse,
		openDB:      database.Open,
		mediaStore:  newMediaStore,
		uploader:    newUploader,
		runServer:   server.Run,
		newService:  service.NewMapService,
	}
}

// NewRootCommand returns the mediamap command tree.
func NewRootCommand() *cobra.Command {
	return newApp().rootCommand()
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mediamap",
		Short: "Build a self-contained map document from location and media tables",
		Long: `mediamap merges a media table (CSV or XLSX rows with coordinates, a
timestamp and a path to a photo or video) with an optional event table and
writes one HTML document: a clustered map, a chronological sidebar and
client-side filters.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML config file (default "+config.DefaultConfigFile+" when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug events")

	root.AddCommand(
		a.generateCommand(),
		a.serveCommand(),
		a.importCommand(),
		a.pushCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	logging.SetVerbose(a.verbose)

	a.cfg = config.Load()
	path, optional := a.configPath, false
	if path == "" {
		path, optional = config.DefaultConfigFile, true
	}
	return a.cfg.LoadFile(path, optional)
}

// overlay copies the flags the user set onto their config fields.
func overlay(cmd *cobra.Command, fields map[string]*string) {
	for name, dst := range fields {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
}

func newMediaStore(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if cfg.Media.Backend == config.BackendMinIO {
		m, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return storage.NewLocal(cfg.Media, cfg.MediaBaseURL())
}

func newUploader(ctx context.Context, c config.MinIOConfig) (storage.Uploader, error) {
	m, err := storage.NewMinIO(ctx, c)
	if err != nil {
		return nil, err
	}
	return m, nil
}
