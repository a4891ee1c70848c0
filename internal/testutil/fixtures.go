// internal/testutil/fixtures.go
package testutil

import (
	"strings"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
)

// Config returns defaults with an in-memory store and a predictable page size
func Config() *config.Config {
	cfg := config.FromEnv()
	cfg.App.Environment = "test"
	cfg.Query = config.QueryConfig{PageSize: 3}
	cfg.External.Storage.Provider = "memory"
	cfg.External.Email.Provider = "log"
	cfg.Security.BcryptCost = 4
	return cfg
}

// Upload builds a small in-memory file
func Upload(name string) *storage.Upload {
	body := "data:" + name
	return &storage.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}
