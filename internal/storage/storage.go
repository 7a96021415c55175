package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload writes the whole buffer to the configured bucket under key and
// returns the object's public URL.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return s.backend.PublicURL(key), nil
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// PublicURL returns the public URL for an object key.
func (s *Storage) PublicURL(key string) string {
	return s.backend.PublicURL(key)
}

// KeyForURL maps a public URL previously returned by Upload back to its
// object key. The second return value is false when the URL does not
// belong to the configured bucket.
func (s *Storage) KeyForURL(publicURL string) (string, bool) {
	prefix := s.backend.PublicURL("")
	key, ok := strings.CutPrefix(publicURL, prefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
