// Package file stores uploaded images in object storage for profile
// pictures, club logos and gallery photos.
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fest-portal-api/internal/domain"
	s3infra "github.com/fest-portal-api/internal/infrastructure/s3"
)

// MaxUploadSize bounds a single image upload.
const MaxUploadSize = 5 << 20

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Stored identifies an object after upload.
type Stored struct {
	URL string
	Key string
}

type Service interface {
	Put(ctx context.Context, folder string, in UploadInput) (*Stored, error)
	// Discard deletes key when non-nil. Failures are logged, not returned.
	Discard(ctx context.Context, key *string)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	store objectStore
}

func NewService(store objectStore) Service {
	return &service{store: store}
}

func (s *service) Put(ctx context.Context, folder string, in UploadInput) (*Stored, error) {
	if in.Reader == nil {
		return nil, fmt.Errorf("no file provided: %w", domain.ErrBadRequest)
	}
	if in.Size > MaxUploadSize {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", MaxUploadSize, domain.ErrBadRequest)
	}
	contentType := s3infra.ContentType(in.Filename)
	if contentType == "application/octet-stream" {
		return nil, fmt.Errorf("only jpg, png, gif or webp images are allowed: %w", domain.ErrBadRequest)
	}
	key := s3infra.ObjectKey(folder, in.Filename)
	url, err := s.store.Upload(ctx, key, in.Reader, contentType)
	if err != nil {
		return nil, err
	}
	return &Stored{URL: url, Key: key}, nil
}

func (s *service) Discard(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		slog.Warn("failed to delete stored object", "key", *key, "err", err)
	}
}
