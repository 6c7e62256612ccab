package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediamap/internal/config"
	"mediamap/internal/document"
	"mediamap/internal/launcher"
	"mediamap/internal/logging"
	"mediamap/internal/otel"
	"mediamap/internal/repository"
	"mediamap/internal/repository/file"
	"mediamap/internal/repository/postgres"
	"mediamap/internal/service"
)

type generateOptions struct {
	sheet string
	serve bool
	open  bool
}

func (a *app) generateCommand() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [input] [output]",
		Short: "Generate the map document",
		Long: `Reads the media table (a CSV or XLSX file, or a Postgres table with
--table) and the optional event table, and writes the map document.

The event table defaults to MasterMapData.csv and is skipped when that file
does not exist. Naming it with --events makes it required.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", "", "media table file (.csv, .xlsx, .xlsm)")
	f.StringP("output", "o", "", "output HTML document")
	f.String("events", "", "event table file")
	f.String("table", "", "read the media table from this Postgres table instead of a file")
	f.StringVar(&opts.sheet, "sheet", "", "worksheet name for spreadsheet inputs (default first sheet)")
	f.String("url-mode", "", `media links: "server" (http://localhost) or "local" (file://)`)
	f.String("media-root", "", "directory media paths are resolved against")
	f.String("base-url", "", "origin of server-mode media links")
	f.String("backend", "", `media backend: "local" or "minio"`)
	f.StringP("port", "p", "", "port of the media server")
	f.String("marker-phrase", "", "event titles containing this phrase are event A")
	f.String("title", "", "page title")
	f.BoolVar(&opts.serve, "serve", false, "serve the document after generating it")
	f.BoolVar(&opts.open, "open", false, "open the document in the browser (default from MEDIAMAP_OPEN)")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, opts generateOptions) error {
	cfg := a.cfg
	overlay(cmd, map[string]*string{
		"input":         &cfg.Input,
		"output":        &cfg.Output,
		"events":        &cfg.EventInput,
		"table":         &cfg.Table,
		"url-mode":      &cfg.Media.URLMode,
		"media-root":    &cfg.Media.Root,
		"base-url":      &cfg.Media.BaseURL,
		"backend":       &cfg.Media.Backend,
		"port":          &cfg.Port,
		"marker-phrase": &cfg.Labels.MarkerPhrase,
		"title":         &cfg.Labels.Title,
	})
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
	if cmd.Flags().Changed("open") {
		cfg.Open = opts.open
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	shutdown, err := otel.Init(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	media, cleanup, err := a.mediaSource(ctx, opts.sheet)
	if err != nil {
		return err
	}
	defer cleanup()

	events, err := eventSource(cfg.EventInput, cmd.Flags().Changed("events"))
	if err != nil {
		return err
	}

	store, err := a.mediaStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("media storage: %w", err)
	}
	asm, err := document.New()
	if err != nil {
		return err
	}

	svc := a.newService(cfg, store, asm)
	req := service.GenerateRequest{Media: media, Output: cfg.Output}
	if events != nil {
		req.Events = events
	}
	res, err := svc.Generate(ctx, req)
	if err != nil {
		return err
	}
	cmd.Print(renderReport(res, cfg))

	switch {
	case opts.serve:
		return a.serve(cmd, ".", servedPath(cfg.Output), cfg.Port, cfg.Open)
	case cfg.Open:
		return a.openDocument(cmd, cfg)
	}
	return nil
}

// mediaSource opens the primary table. The returned cleanup is never nil.
func (a *app) mediaSource(ctx context.Context, sheet string) (repository.TableRepository, func(), error) {
	cfg := a.cfg
	if cfg.Table == "" {
		f, err := file.Open(cfg.Input)
		if err != nil {
			return nil, func() {}, err
		}
		return f.WithSheet(sheet), func() {}, nil
	}

	db, err := a.openDB(ctx, cfg.Database)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect to database: %w", err)
	}
	repo, err := postgres.NewTablePostgres(db, cfg.Table)
	if err != nil {
		db.Close()
		return nil, func() {}, err
	}
	return repo, func() { db.Close() }, nil
}

// eventSource opens the event table. A missing default file is skipped.
func eventSource(path string, explicit bool) (*file.TableFile, error) {
	if path == "" {
		return nil, nil
	}
	f, err := file.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, repository.ErrSourceNotFound) {
			logging.Debug("cli", "event_source_skipped", logging.Fields{"path": path})
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

func (a *app) openDocument(cmd *cobra.Command, cfg *config.AppConfig) error {
	if cfg.Media.URLMode == config.URLModeServer {
		if !a.portInUse(cfg.Port) {
			cmd.Printf("No server on port %s yet; media will load once `mediamap serve` is running.\n", cfg.Port)
		}
		return a.openBrowser(launcher.ServerURL(cfg.Port, cfg.Output))
	}
	u, err := launcher.FileURL(cfg.Output)
	if err != nil {
		return err
	}
	return a.openBrowser(u)
}

// servedPath returns doc relative to the working directory, which the
// server exposes. Paths outside it are returned unchanged.
func servedPath(doc string) string {
	abs, err := filepath.Abs(doc)
	if err != nil {
		return doc
	}
	wd, err := os.Getwd()
	if err != nil {
		return doc
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return doc
	}
	return filepath.ToSlash(rel)
}
