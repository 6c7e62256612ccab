package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mediamap/internal/config"
)

// localStorage resolves media on the local file system.
type localStorage struct {
	root        string
	urlMode     string
	baseURL     string
	fallbackDir string
}

// NewLocal returns a Storage reading media below cfg.Root. baseURL is the
// origin of server-mode links, e.g. http://localhost:8001.
func NewLocal(cfg config.MediaConfig, baseURL string) (Storage, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	mode := cfg.URLMode
	if mode == "" {
		mode = config.URLModeServer
	}
	fallback := cfg.FallbackDir
	if fallback == "" {
		fallback = "Media"
	}
	return &localStorage{
		root:        abs,
		urlMode:     mode,
		baseURL:     strings.TrimRight(baseURL, "/"),
		fallbackDir: fallback,
	}, nil
}

func (l *localStorage) abs(key string) (string, error) {
	k := NormalizeKey(key)
	if k == "" {
		return "", ErrNotFound
	}
	p := filepath.FromSlash(k)
	if !filepath.IsAbs(p) && !isWindowsAbs(k) {
		p = filepath.Join(l.root, p)
	}
	return p, nil
}

// Stat reports the size of a media file. Directories count as missing.
func (l *localStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p, err := l.abs(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if st.IsDir() {
		return ObjectInfo{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, key)
	}
	return ObjectInfo{
		Key:          key,
		Name:         st.Name(),
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
		LastModified: st.ModTime(),
	}, nil
}

// URL builds a server-relative link below the media root, falling back to
// <fallback dir>/<file name> for files outside it, or a file:// link in
// local mode.
func (l *localStorage) URL(ctx context.Context, key string) (string, error) {
	p, err := l.abs(key)
	if err != nil {
		return "", err
	}

	if l.urlMode == config.URLModeLocal {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		if !strings.HasPrefix(u.Path, "/") {
			u.Path = "/" + u.Path
		}
		return u.String(), nil
	}

	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Join(l.fallbackDir, filepath.Base(p))
	}
	return l.baseURL + "/" + escapePath(filepath.ToSlash(rel)), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// isWindowsAbs recognizes drive-letter paths such as C:/Media/a.jpg that
// spreadsheets exported on Windows contain.
func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
