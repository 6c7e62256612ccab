// Package launcher opens the generated map in the default browser and probes
// for an already running server.
package launcher

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/browser"

	"mediamap/internal/logging"
)

// openURL is swapped in tests.
var openURL = browser.OpenURL

// ProbeTimeout bounds the port probe.
const ProbeTimeout = 500 * time.Millisecond

// ServerURL returns http://localhost:<port>/<document> with the document
// path escaped segment by segment.
func ServerURL(port, document string) string {
	parts := strings.Split(strings.TrimLeft(filepath.ToSlash(document), "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("http://localhost:%s/%s", port, strings.Join(parts, "/"))
}

// FileURL returns the file:// URL of path.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}

// PortInUse reports whether something accepts connections on localhost:port.
func PortInUse(port string) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", port), ProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Open opens target in the default browser.
func Open(target string) error {
	logging.Info("launcher", "browser_open", logging.Fields{"url": target})
	if err := openURL(target); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
