// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
)

// uploads reads image fields from multipart forms
type uploads struct {
	config config.UploadConfig
}

// single returns the file in field, or nil when the field is absent
func (u uploads) single(c *gin.Context, field string) (*storage.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to parse upload form", err)
	}
	return u.read(header)
}

// many returns every file sent under field
func (u uploads) many(c *gin.Context, field string) ([]*storage.Upload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to parse upload form", err)
	}

	var out []*storage.Upload
	for _, header := range form.File[field] {
		upload, err := u.read(header)
		if err != nil {
			return nil, err
		}
		out = append(out, upload)
	}
	return out, nil
}

func (u uploads) read(header *multipart.FileHeader) (*storage.Upload, error) {
	if u.config.MaxSize > 0 && header.Size > u.config.MaxSize {
		return nil, apperror.Validationf("%s exceeds the %d byte limit", header.Filename, u.config.MaxSize)
	}
	if !u.allowed(header.Filename) {
		return nil, apperror.Validationf("%s: only %s images are allowed", header.Filename, strings.Join(u.config.AllowedExtensions, ", "))
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to read upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "failed to read upload", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}, nil
}

func (u uploads) allowed(filename string) bool {
	if len(u.config.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range u.config.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
