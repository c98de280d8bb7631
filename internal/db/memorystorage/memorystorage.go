// Package memorystorage is the in-memory storage backend. It reuses the
// jsondb cache without ever touching the filesystem.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/linktrack/internal/db/jsondb"
	"github.com/patric-chuzhbe/linktrack/internal/models"
)

// MemoryStorage holds users and links in process memory only.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users: map[string]models.User{},
				Links: map[string]models.Link{},
			},
		},
	}, nil
}

// Close is a no-op: nothing to flush.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping is a no-op for the memory backend.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
