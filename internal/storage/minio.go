package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mediamap/internal/config"
)

// MinIO resolves media kept in an S3-compatible bucket (MinIO, AWS S3, etc.).
// Links are pre-signed GET URLs. It is safe for concurrent use.
type MinIO struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinIO creates a new S3-compatible storage client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIO, error) {
	if err := validateMinIO(cfg); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIO{client: cli, bucket: cfg.Bucket, expiry: presignExpiry(cfg.PresignExpirySec)}, nil
}

func validateMinIO(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

// S3 caps pre-signed URLs at seven days.
const maxPresignExpiry = 7 * 24 * time.Hour

func presignExpiry(sec int) time.Duration {
	d := time.Duration(sec) * time.Second
	if d <= 0 || d > maxPresignExpiry {
		return maxPresignExpiry
	}
	return d
}

// ObjectKey maps a media reference to its object key: slash separated,
// without leading "./" or "/", and without a drive letter.
func ObjectKey(ref string) string {
	k := NormalizeKey(ref)
	if isWindowsAbs(k) {
		k = k[3:]
	}
	k = strings.TrimLeft(k, "/")
	if k == "." {
		return ""
	}
	return path.Clean("/" + k)[1:]
}

// Stat fetches object metadata.
func (m *MinIO) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	k := ObjectKey(key)
	if k == "" {
		return ObjectInfo{}, ErrNotFound
	}
	st, err := m.client.StatObject(ctx, m.bucket, k, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", k, err)
	}
	return ObjectInfo{
		Key:          k,
		Name:         path.Base(k),
		Size:         st.Size,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
	}, nil
}

// URL generates a pre-signed GET URL.
func (m *MinIO) URL(ctx context.Context, key string) (string, error) {
	k := ObjectKey(key)
	if k == "" {
		return "", ErrNotFound
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, k, m.expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Put uploads an object using streaming I/O only (no local disk).
func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	k := ObjectKey(key)
	info, err := m.client.PutObject(ctx, m.bucket, k, r, opt.Size, minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          k,
		Name:         path.Base(k),
		Size:         info.Size,
		ContentType:  opt.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchObject":
		return true
	}
	return false
}

var (
	_ Storage  = (*MinIO)(nil)
	_ Uploader = (*MinIO)(nil)
)
