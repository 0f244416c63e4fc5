// Package memorystorage is the fallback storage backend: the jsondb cache
// without a file behind it. All data is lost on process restart.
package memorystorage

import (
	"context"

	"github.com/RussellAbraham/tinyapp/internal/db/jsondb"
	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

// MemoryStorage reuses the jsondb implementation with Close and Ping
// overridden to no-ops.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	theStorage := &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:     map[string]*user.User{},
				UserOrder: []string{},
				Urls:      map[string]*models.URLRecord{},
				URLOrder:  []string{},
			},
		},
	}

	return theStorage, nil
}

// Close is a no-op: there is nothing to flush.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
