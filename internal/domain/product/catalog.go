// internal/domain/product/catalog.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its words with dashes
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}

// normalizeName applies the lower-case, trimmed form names are stored in
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Storage folders holding catalog images
const (
	FolderCategories    = "categories"
	FolderSubCategories = "subcategories"
	FolderBrands        = "brands"
	FolderProducts      = "products"
)

// ImageFolders lists every folder catalog images are written to
var ImageFolders = []string{FolderCategories, FolderSubCategories, FolderBrands, FolderProducts}

// images uploads and removes catalog files under a per-call deadline
type images struct {
	store   storage.Storage
	timeout time.Duration
	logger  *logrus.Logger
}

func (i images) put(ctx context.Context, folder string, upload *storage.Upload) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	obj, err := i.store.Put(ctx, storage.NewKey(folder, upload.Filename), *upload)
	if err != nil {
		return Image{}, apperror.Upstream("storage", err)
	}
	return Image{URL: obj.URL, Key: obj.Key}, nil
}

// remove deletes objects best-effort; a leaked file is logged, never fatal
func (i images) remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
		if err := i.store.Delete(dctx, key); err != nil {
			i.logger.WithError(err).WithField("key", key).Warn("Failed to delete stored object")
		}
		cancel()
	}
}

// notFound maps gorm's record-not-found to a NotFound error with msg
func notFound(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(msg)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
