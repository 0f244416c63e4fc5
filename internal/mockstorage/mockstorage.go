// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used to simulate backend failures in service and
// handler tests.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

// StorageMock is a testify mock implementing every storage operation.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks inserting a user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	args := m.Called(ctx, usr, transaction)
	return args.Error(0)
}

// CreateUserIfEmailFree mocks the atomic check-and-insert of a user.
func (m *StorageMock) CreateUserIfEmailFree(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// GetUserByID mocks the user lookup by ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByEmail mocks the user lookup by email.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	args := m.Called(ctx, email, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetNumberOfUsers mocks the user count.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// InsertURL mocks inserting a URL record.
func (m *StorageMock) InsertURL(ctx context.Context, record models.URLRecord, transaction *sql.Tx) error {
	args := m.Called(ctx, record, transaction)
	return args.Error(0)
}

// FindURLByShort mocks the record lookup by short code.
func (m *StorageMock) FindURLByShort(ctx context.Context, short string) (models.URLRecord, bool, error) {
	args := m.Called(ctx, short)
	record, _ := args.Get(0).(models.URLRecord)
	return record, args.Bool(1), args.Error(2)
}

// GetURLsForOwner mocks the owner-scoped listing.
func (m *StorageMock) GetURLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error) {
	args := m.Called(ctx, ownerID)
	records, _ := args.Get(0).([]models.URLRecord)
	return records, args.Error(1)
}

// UpdateLongURL mocks the target update.
func (m *StorageMock) UpdateLongURL(ctx context.Context, short, newLongURL string) error {
	args := m.Called(ctx, short, newLongURL)
	return args.Error(0)
}

// DeleteURL mocks the record removal.
func (m *StorageMock) DeleteURL(ctx context.Context, short string) error {
	args := m.Called(ctx, short)
	return args.Error(0)
}

// IsShortExists mocks the short code existence check.
func (m *StorageMock) IsShortExists(ctx context.Context, short string) (bool, error) {
	args := m.Called(ctx, short)
	return args.Bool(0), args.Error(1)
}

// GetNumberOfURLs mocks the URL count.
func (m *StorageMock) GetNumberOfURLs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// RegisterVisits mocks the visit count flush.
func (m *StorageMock) RegisterVisits(ctx context.Context, visits map[string]int64) error {
	args := m.Called(ctx, visits)
	return args.Error(0)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(transaction *sql.Tx) error {
	args := m.Called(transaction)
	return args.Error(0)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the backend.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
