package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"mediamap/internal/launcher"
	"mediamap/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		root     string
		mediaDir string
		open     bool
	)
	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve the map document and its media directory",
		Long: `Serves the working directory read-only on localhost so server-mode
media links resolve. The document and the media directory must exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.cfg.Output
			if len(args) > 0 {
				doc = args[0]
			}
			overlay(cmd, map[string]*string{"port": &a.cfg.Port})
			if cmd.Flags().Changed("open") {
				a.cfg.Open = open
			}
			if mediaDir == "" {
				mediaDir = a.cfg.Media.FallbackDir
			}

			if err := requireFile(filepath.Join(root, doc), false); err != nil {
				return fmt.Errorf("map file not found: %w", err)
			}
			if err := requireFile(filepath.Join(root, mediaDir), true); err != nil {
				return fmt.Errorf("media folder not found: %w", err)
			}
			return a.serve(cmd, root, doc, a.cfg.Port, a.cfg.Open)
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "directory to serve")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "media directory below root (default Media)")
	cmd.Flags().StringP("port", "p", "", "port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "open the map in the browser (default from MEDIAMAP_OPEN)")
	return cmd
}

func requireFile(path string, dir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() != dir {
		if dir {
			return fmt.Errorf("%s is not a directory", path)
		}
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// serve runs the file server until interrupted. When something already
// listens on port it only opens the browser.
func (a *app) serve(cmd *cobra.Command, root, doc, port string, open bool) error {
	url := launcher.ServerURL(port, doc)
	if a.portInUse(port) {
		cmd.Printf("Server already running on port %s\n", port)
		if open {
			return a.openBrowser(url)
		}
		return nil
	}

	ln, err := server.Listen(port)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{Root: root, Document: doc})
	if err != nil {
		ln.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Serving %s at %s\nPress Ctrl+C to stop.\n", root, url)
	if open {
		if err := a.openBrowser(url); err != nil {
			cmd.PrintErrf("could not open browser: %v\n", err)
		}
	}
	return a.runServer(ctx, srv, ln)
}
