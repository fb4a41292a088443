package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	PublicBaseURL   string // optional CDN or emulator base
	CredentialsJSON string // inline JSON or a file path
	EmulatorHost    string
}

// GCSStore is the production BlobStore backed by a Google Cloud Storage bucket.
type GCSStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *slog.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	client, err := storage.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" && cfg.EmulatorHost != "" {
		base = strings.TrimRight(cfg.EmulatorHost, "/")
	}

	logger.Info("Object storage initialized",
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
		"public_base_url", base)

	return &GCSStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: base,
		logger:        logger.With("component", "gcs_store"),
	}, nil
}

func clientOptions(cfg GCSConfig) []option.ClientOption {
	if cfg.EmulatorHost != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return []option.ClientOption{option.WithoutAuthentication()}
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	creds := strings.TrimSpace(cfg.CredentialsJSON)
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// Upload writes content to path and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, path string, content io.Reader, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForName(path)
	}
	w.ContentType = contentType

	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	s.logger.DebugContext(ctx, "Uploaded object", "path", path, "content_type", contentType)
	return s.PublicURL(path), nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q: %w", path, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, escapePath(path))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, escapePath(path))
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
