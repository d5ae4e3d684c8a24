package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Storage is the object-store backend beneath the asset store.
// Delete of a missing key is not an error.
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetURL returns the public retrieval URL for key.
	GetURL(key string) string
}

// Config holds storage configuration. Credentials are injected here and
// nowhere else.
type Config struct {
	Type       string // local, s3, cloudflare_r2, memory
	BasePath   string // local
	BaseURL    string // public URL base
	Bucket     string // s3, r2
	Region     string // s3
	AccessKey  string // s3, r2
	SecretKey  string // s3, r2
	Endpoint   string // r2 or custom s3
	PublicRead bool   // s3 ACL public-read on upload
}

// NewStorage creates a backend based on cfg.Type.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	case "memory":
		return NewMemoryStorage(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
