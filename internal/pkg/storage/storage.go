// internal/pkg/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopcore/ecommerce-backend/internal/config"
)

// Object is a stored file: a public URL plus the key used to delete it
type Object struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Upload is a file on its way into storage
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Storage is the object store used for catalog images and receipts
type Storage interface {
	Put(ctx context.Context, key string, upload Upload) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Opener is implemented by stores that serve objects back through the API
// instead of a public URL
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ErrNotFound is returned by Open for a missing key
var ErrNotFound = errors.New("object not found")

// New picks the backend named by STORAGE_PROVIDER
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3(ctx, cfg)
	case "local":
		return NewLocal(cfg.LocalPath, cfg.LocalBaseURL)
	case "memory":
		return NewMemory("memory://"), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

// NewKey builds a collision-free key under folder keeping the file extension
func NewKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}
