// Package postgresdb implements the storage interface on PostgreSQL using
// the pgx driver through database/sql. Schema management is done with goose
// migrations at startup.
package postgresdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

// PostgresDB is the PostgreSQL storage backend.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (pgdb *PostgresDB) queryerFor(transaction *sql.Tx) queryer {
	if transaction == nil {
		return pgdb.database
	}
	return transaction
}

func (pgdb *PostgresDB) executorFor(transaction *sql.Tx) executor {
	if transaction == nil {
		return pgdb.database
	}
	return transaction
}

// New opens the database, verifies connectivity and applies pending
// migrations from migrationsDir.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgresdb.New: ping failed: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("postgresdb.New: goose.SetDialect: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("postgresdb.New: goose.Up: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user row.
func (pgdb *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	_, err := pgdb.executorFor(transaction).ExecContext(
		ctx,
		`INSERT INTO users ("id", "email", "password_hash") VALUES ($1, $2, $3)`,
		usr.ID,
		usr.Email,
		usr.PasswordHash,
	)

	return err
}

// CreateUserIfEmailFree inserts a user row unless its email is already
// taken. ON CONFLICT DO NOTHING makes the check-and-insert atomic at the
// database level; a lost race surfaces as models.ErrConflict.
func (pgdb *PostgresDB) CreateUserIfEmailFree(ctx context.Context, usr *user.User) error {
	result, err := pgdb.database.ExecContext(
		ctx,
		`INSERT INTO users ("id", "email", "password_hash") VALUES ($1, $2, $3)
			ON CONFLICT ("email") DO NOTHING`,
		usr.ID,
		usr.Email,
		usr.PasswordHash,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%q: %w", usr.Email, models.ErrConflict)
	}

	return nil
}

// GetUserByID returns the user with the given ID, if any.
func (pgdb *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	row := pgdb.database.QueryRowContext(
		ctx,
		`SELECT "id", "email", "password_hash" FROM users WHERE "id" = $1`,
		userID,
	)

	usr := user.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &usr, true, nil
}

// FindUserByEmail returns the earliest-registered user with the given email.
func (pgdb *PostgresDB) FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error) {
	rows, err := pgdb.queryerFor(transaction).QueryContext(
		ctx,
		`SELECT "id", "email", "password_hash" FROM users WHERE "email" = $1 ORDER BY "position" LIMIT 1`,
		email,
	)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	usr := user.User{}
	if err := rows.Scan(&usr.ID, &usr.Email, &usr.PasswordHash); err != nil {
		return nil, false, err
	}

	return &usr, true, rows.Err()
}

// GetNumberOfUsers returns the size of the user directory.
func (pgdb *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	var count int64
	err := pgdb.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)

	return count, err
}

// InsertURL inserts a new URL row.
func (pgdb *PostgresDB) InsertURL(ctx context.Context, record models.URLRecord, transaction *sql.Tx) error {
	_, err := pgdb.executorFor(transaction).ExecContext(
		ctx,
		`INSERT INTO urls ("short_code", "long_url", "owner_id") VALUES ($1, $2, $3)`,
		record.ShortCode,
		record.LongURL,
		record.OwnerID,
	)

	return err
}

// FindURLByShort returns the record stored under the given short code.
func (pgdb *PostgresDB) FindURLByShort(ctx context.Context, short string) (models.URLRecord, bool, error) {
	row := pgdb.database.QueryRowContext(
		ctx,
		`SELECT "short_code", "long_url", "owner_id", "visits" FROM urls WHERE "short_code" = $1`,
		short,
	)

	record := models.URLRecord{}
	err := row.Scan(&record.ShortCode, &record.LongURL, &record.OwnerID, &record.Visits)
	if err == sql.ErrNoRows {
		return models.URLRecord{}, false, nil
	}
	if err != nil {
		return models.URLRecord{}, false, err
	}

	return record, true, nil
}

// GetURLsForOwner returns the owner's records in insertion order.
func (pgdb *PostgresDB) GetURLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error) {
	rows, err := pgdb.database.QueryContext(
		ctx,
		`SELECT "short_code", "long_url", "owner_id", "visits" FROM urls WHERE "owner_id" = $1 ORDER BY "position"`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.URLRecord{}
	for rows.Next() {
		record := models.URLRecord{}
		if err := rows.Scan(&record.ShortCode, &record.LongURL, &record.OwnerID, &record.Visits); err != nil {
			return nil, err
		}
		result = append(result, record)
	}

	return result, rows.Err()
}

// UpdateLongURL replaces the target of an existing record.
func (pgdb *PostgresDB) UpdateLongURL(ctx context.Context, short, newLongURL string) error {
	result, err := pgdb.database.ExecContext(
		ctx,
		`UPDATE urls SET "long_url" = $1 WHERE "short_code" = $2`,
		newLongURL,
		short,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteURL removes a record.
func (pgdb *PostgresDB) DeleteURL(ctx context.Context, short string) error {
	result, err := pgdb.database.ExecContext(
		ctx,
		`DELETE FROM urls WHERE "short_code" = $1`,
		short,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// IsShortExists reports whether a short code is already taken.
func (pgdb *PostgresDB) IsShortExists(ctx context.Context, short string) (bool, error) {
	var exists bool
	err := pgdb.database.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM urls WHERE "short_code" = $1)`,
		short,
	).Scan(&exists)

	return exists, err
}

// GetNumberOfURLs returns the size of the URL store.
func (pgdb *PostgresDB) GetNumberOfURLs(ctx context.Context) (int64, error) {
	var count int64
	err := pgdb.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM urls`).Scan(&count)

	return count, err
}

// RegisterVisits adds the collected visit counts to their rows in a single
// transaction.
func (pgdb *PostgresDB) RegisterVisits(ctx context.Context, visits map[string]int64) error {
	if len(visits) == 0 {
		return nil
	}

	transaction, err := pgdb.database.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	for short, count := range visits {
		_, err := transaction.ExecContext(
			ctx,
			`UPDATE urls SET "visits" = "visits" + $1 WHERE "short_code" = $2`,
			count,
			short,
		)
		if err != nil {
			return err
		}
	}

	return transaction.Commit()
}

// BeginTransaction starts a database transaction.
func (pgdb *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return pgdb.database.Begin()
}

// CommitTransaction commits the given transaction.
func (pgdb *PostgresDB) CommitTransaction(transaction *sql.Tx) error {
	if transaction == nil {
		return nil
	}
	return transaction.Commit()
}

// RollbackTransaction rolls the given transaction back. Rolling back an
// already committed transaction is not an error.
func (pgdb *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	if transaction == nil {
		return nil
	}
	err := transaction.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}

	return err
}

// Ping verifies database connectivity within the configured timeout.
func (pgdb *PostgresDB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pgdb.connectionTimeout)
	defer cancel()

	return pgdb.database.PingContext(pingCtx)
}

// Close closes the connection pool.
func (pgdb *PostgresDB) Close() error {
	return pgdb.database.Close()
}
