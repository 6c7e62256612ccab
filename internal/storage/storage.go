// Package storage resolves media references to file metadata and to the URL
// the generated document links to. Media may live on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Stat when the referenced media does not exist.
var ErrNotFound = errors.New("media not found")

// ObjectInfo contains basic information about a media file or object.
type ObjectInfo struct {
	Key          string
	Name         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// SizeMB returns the size in megabytes.
func (o ObjectInfo) SizeMB() float64 {
	return float64(o.Size) / (1024 * 1024)
}

// Storage resolves media references.
type Storage interface {
	// Stat returns the metadata of key, or ErrNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// URL returns the link the document embeds for key.
	URL(ctx context.Context, key string) (string, error)
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Uploader is implemented by backends that accept new media.
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
}

// NormalizeKey converts a media reference from a spreadsheet into a slash
// separated key. Windows separators are accepted.
func NormalizeKey(key string) string {
	k := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if k == "" {
		return ""
	}
	return path.Clean(k)
}
