// Package jsondb implements the storage interface on top of in-memory maps
// that are loaded from and flushed to a JSON file. It also serves as the
// cache implementation the pure in-memory backend embeds.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

// CacheStruct is the serialized shape of the database: the user directory
// and the URL store, each with its insertion order.
type CacheStruct struct {
	Users     map[string]*user.User
	UserOrder []string
	Urls      map[string]*models.URLRecord
	URLOrder  []string
}

// JSONDB keeps the whole database in memory and writes it back to its file
// on Close. Mutations are serialized with a single RWMutex, so concurrent
// requests cannot interleave read-modify-write cycles.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"UserOrder": [],
	"Urls": {},
	"URLOrder": []
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// EnsureCache replaces nil maps and slices with empty ones, so a database
// loaded from a sparse file is safe to mutate.
func (db *JSONDB) EnsureCache() {
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}
	if db.Cache.UserOrder == nil {
		db.Cache.UserOrder = []string{}
	}
	if db.Cache.Urls == nil {
		db.Cache.Urls = map[string]*models.URLRecord{}
	}
	if db.Cache.URLOrder == nil {
		db.Cache.URLOrder = []string{}
	}
}

// New loads the database from fileName, creating an empty one when the file
// does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	db.EnsureCache()

	return &db, nil
}

// CreateUser adds a user keyed by its ID. Email uniqueness is the caller's
// responsibility.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	clone := *usr
	db.Cache.Users[usr.ID] = &clone
	db.Cache.UserOrder = append(db.Cache.UserOrder, usr.ID)

	return nil
}

// CreateUserIfEmailFree adds a user unless its email is already registered,
// in which case it fails with models.ErrConflict. The check and the insert
// happen under one write lock, so concurrent registrations with the same
// email cannot both pass.
func (db *JSONDB) CreateUserIfEmailFree(ctx context.Context, usr *user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, userID := range db.Cache.UserOrder {
		existing, ok := db.Cache.Users[userID]
		if ok && existing.Email == usr.Email {
			return fmt.Errorf("%q: %w", usr.Email, models.ErrConflict)
		}
	}

	clone := *usr
	db.Cache.Users[usr.ID] = &clone
	db.Cache.UserOrder = append(db.Cache.UserOrder, usr.ID)

	return nil
}

// GetUserByID returns the user with the given ID, if any.
func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}
	clone := *usr

	return &clone, true, nil
}

// FindUserByEmail scans the directory in insertion order and returns the
// first user whose email matches exactly.
func (db *JSONDB) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, userID := range db.Cache.UserOrder {
		usr, ok := db.Cache.Users[userID]
		if ok && usr.Email == email {
			clone := *usr
			return &clone, true, nil
		}
	}

	return nil, false, nil
}

// GetNumberOfUsers returns the size of the user directory.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// InsertURL adds a new URL record. The caller supplies the short code and
// has already checked it for collisions.
func (db *JSONDB) InsertURL(ctx context.Context, record models.URLRecord, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.Cache.Urls[record.ShortCode] = &record
	db.Cache.URLOrder = append(db.Cache.URLOrder, record.ShortCode)

	return nil
}

// FindURLByShort returns the record stored under the given short code.
func (db *JSONDB) FindURLByShort(ctx context.Context, short string) (models.URLRecord, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	record, found := db.Cache.Urls[short]
	if !found {
		return models.URLRecord{}, false, nil
	}

	return *record, true, nil
}

// GetURLsForOwner returns the records owned by ownerID, preserving their
// insertion order. An empty or unknown owner yields an empty slice.
func (db *JSONDB) GetURLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	ownedShorts := funk.Filter(db.Cache.URLOrder, func(short string) bool {
		record, ok := db.Cache.Urls[short]
		return ok && record.OwnerID == ownerID
	}).([]string)

	result := make([]models.URLRecord, 0, len(ownedShorts))
	for _, short := range ownedShorts {
		result = append(result, *db.Cache.Urls[short])
	}

	return result, nil
}

// UpdateLongURL replaces the target of an existing record.
func (db *JSONDB) UpdateLongURL(ctx context.Context, short, newLongURL string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	record, found := db.Cache.Urls[short]
	if !found {
		return models.ErrNotFound
	}
	record.LongURL = newLongURL

	return nil
}

// DeleteURL removes a record and its slot in the insertion order.
func (db *JSONDB) DeleteURL(ctx context.Context, short string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, found := db.Cache.Urls[short]; !found {
		return models.ErrNotFound
	}
	delete(db.Cache.Urls, short)
	db.Cache.URLOrder = funk.FilterString(db.Cache.URLOrder, func(s string) bool {
		return s != short
	})

	return nil
}

// IsShortExists reports whether a short code is already taken.
func (db *JSONDB) IsShortExists(ctx context.Context, short string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.Cache.Urls[short]

	return exists, nil
}

// GetNumberOfURLs returns the size of the URL store.
func (db *JSONDB) GetNumberOfURLs(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Urls)), nil
}

// RegisterVisits adds the collected visit counts to their records. Counts
// for short codes deleted in the meantime are discarded.
func (db *JSONDB) RegisterVisits(ctx context.Context, visits map[string]int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for short, count := range visits {
		record, found := db.Cache.Urls[short]
		if !found {
			continue
		}
		record.Visits += count
	}

	return nil
}

// BeginTransaction is a no-op for the file backend.
func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

// CommitTransaction is a no-op for the file backend.
func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

// RollbackTransaction is a no-op for the file backend.
func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

// Ping always succeeds for the file backend.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache back to the file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
