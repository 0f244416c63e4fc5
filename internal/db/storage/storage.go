// Package storage declares the interface every storage backend of the
// application implements: the user directory, the URL store, visit counters
// and transaction control.
package storage

import (
	"context"
	"database/sql"

	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

// Storage is the union of everything the service layer needs from a backend.
// Backends without real transactions return nil from BeginTransaction and
// treat the transaction arguments as no-ops.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error
	CreateUserIfEmailFree(ctx context.Context, usr *user.User) error
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
	FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error)
	GetNumberOfUsers(ctx context.Context) (int64, error)

	InsertURL(ctx context.Context, record models.URLRecord, transaction *sql.Tx) error
	FindURLByShort(ctx context.Context, short string) (models.URLRecord, bool, error)
	GetURLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error)
	UpdateLongURL(ctx context.Context, short, newLongURL string) error
	DeleteURL(ctx context.Context, short string) error
	IsShortExists(ctx context.Context, short string) (bool, error)
	GetNumberOfURLs(ctx context.Context) (int64, error)

	RegisterVisits(ctx context.Context, visits map[string]int64) error

	BeginTransaction() (*sql.Tx, error)
	CommitTransaction(transaction *sql.Tx) error
	RollbackTransaction(transaction *sql.Tx) error

	Ping(ctx context.Context) error
	Close() error
}
