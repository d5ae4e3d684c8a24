package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"shareplace_backend/internal/metrics"
	"shareplace_backend/internal/storage"
	"shareplace_backend/pkg/apperrors"
)

// Folders assets are stored under.
const (
	FolderPlaces = "places"
	FolderUsers  = "users"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// AssetStore uploads and deletes binary objects. Upload returns the public
// URL; Delete of a missing key succeeds. Check applies the upload policy
// without touching the backend.
type AssetStore interface {
	Check(data []byte) (string, error)
	Upload(ctx context.Context, data []byte, key string) (string, error)
	Delete(ctx context.Context, key string) error
	NewKey(folder, prefix, ext string) string
}

// Config is injected at construction.
type Config struct {
	Timeout      time.Duration
	MaxSize      int64
	AllowedTypes []string
}

// Store implements AssetStore over a storage backend.
type Store struct {
	backend storage.Storage
	cfg     Config
	allowed map[string]bool
	now     func() time.Time

	// keys must be unique even when two uploads share a nanosecond timestamp
	mu      sync.Mutex
	lastKey int64
}

func NewStore(backend storage.Storage, cfg Config) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &Store{
		backend: backend,
		cfg:     cfg,
		allowed: allowed,
		now:     time.Now,
	}
}

// Check validates size and content type and returns the canonical extension
// of the detected type (".jpg", ".png", ".gif").
func (s *Store) Check(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.cfg.MaxSize > 0 && int64(len(data)) > s.cfg.MaxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), s.cfg.MaxSize)
	}

	mtype := mimetype.Detect(data)
	if len(s.allowed) > 0 && !s.allowed[mtype.String()] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
	return mtype.Extension(), nil
}

// Upload stores data under key. The call is detached from ctx cancellation
// and bounded by the configured timeout.
func (s *Store) Upload(ctx context.Context, data []byte, key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	contentType := mimetype.Detect(data).String()
	err := s.backend.Save(ctx, key, bytes.NewReader(data), contentType)
	metrics.RecordAssetOp("upload", time.Since(start), err == nil)
	if err != nil {
		return "", apperrors.UploadFailed(fmt.Errorf("upload %s: %w", key, err))
	}

	return s.backend.GetURL(key), nil
}

// Delete removes key; a missing key is success.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Delete(ctx, key)
	metrics.RecordAssetOp("delete", time.Since(start), err == nil)
	if err != nil {
		return apperrors.DeleteFailed(fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}

// NewKey derives "<folder>/<slug(prefix)>_<unixnano><ext>".
func (s *Store) NewKey(folder, prefix, ext string) string {
	s.mu.Lock()
	stamp := s.now().UnixNano()
	if stamp <= s.lastKey {
		stamp = s.lastKey + 1
	}
	s.lastKey = stamp
	s.mu.Unlock()

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s_%d%s", folder, Slug(prefix), stamp, strings.ToLower(ext))
}

// Slug lower-cases s and collapses every run of non-alphanumerics into a
// single dash. At most 50 characters; "asset" when nothing is left.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if runes := []rune(slug); len(runes) > 50 {
		slug = strings.TrimRight(string(runes[:50]), "-")
	}
	if slug == "" {
		return "asset"
	}
	return slug
}
