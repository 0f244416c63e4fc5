// Package service implements the application core: account registration and
// login, short code assignment, owner-scoped access to URL records and
// redirect resolution. Handlers translate its error kinds to HTTP statuses.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/RussellAbraham/tinyapp/internal/auth"
	"github.com/RussellAbraham/tinyapp/internal/idgen"
	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

type usersKeeper interface {
	CreateUserIfEmailFree(ctx context.Context, usr *user.User) error
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
	FindUserByEmail(ctx context.Context, email string, transaction *sql.Tx) (*user.User, bool, error)
	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type urlsKeeper interface {
	InsertURL(ctx context.Context, record models.URLRecord, transaction *sql.Tx) error
	FindURLByShort(ctx context.Context, short string) (models.URLRecord, bool, error)
	GetURLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error)
	UpdateLongURL(ctx context.Context, short, newLongURL string) error
	DeleteURL(ctx context.Context, short string) error
	IsShortExists(ctx context.Context, short string) (bool, error)
	GetNumberOfURLs(ctx context.Context) (int64, error)
}

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	usersKeeper
	urlsKeeper
	transactioner
	pinger
}

type visitsTracker interface {
	Track(shortCode string)
}

var urlPattern = regexp.MustCompile(`\bhttps?://\S+\b`)

// Service wires the storage backend and the visit tracker into the
// application operations.
type Service struct {
	db           storage
	visits       visitsTracker
	shortURLBase string
}

// New creates a Service. visits may be nil, in which case redirects are not
// counted.
func New(
	db storage,
	visits visitsTracker,
	shortURLBase string,
) *Service {
	return &Service{
		db:           db,
		visits:       visits,
		shortURLBase: shortURLBase,
	}
}

// extractFirstURL pulls the first http(s) URL out of a submitted value.
func extractFirstURL(input string) (string, error) {
	match := urlPattern.FindString(input)
	if match == "" {
		return "", fmt.Errorf("no valid URL in %q: %w", input, models.ErrValidation)
	}

	return match, nil
}

// Register creates a new account. It fails with models.ErrValidation on an
// empty email or password and with models.ErrConflict when the email is
// already registered; on conflict the user directory is left untouched. The
// email check and the insert are one atomic store operation, so concurrent
// registrations with the same email cannot both succeed.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", models.ErrValidation)
	}

	_, found, err := s.db.FindUserByEmail(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("%q: %w", email, models.ErrConflict)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID, err := idgen.GenerateUnique(
		ctx,
		idgen.CodeLength,
		func(ctx context.Context, candidate string) (bool, error) {
			_, exists, err := s.db.GetUserByID(ctx, candidate)
			return exists, err
		},
	)
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.db.CreateUserIfEmailFree(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// Login checks the credentials. It fails with models.ErrNotFound for an
// unknown email and models.ErrBadCredentials for a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	usr, found, err := s.db.FindUserByEmail(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%q: %w", email, models.ErrNotFound)
	}

	if err := auth.VerifyPassword(usr.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%q: %w", email, models.ErrBadCredentials)
	}

	return usr, nil
}

// CreateShortURL assigns a fresh short code to the first valid URL found in
// longURL and stores the record for ownerID.
func (s *Service) CreateShortURL(ctx context.Context, longURL, ownerID string) (models.URLRecord, error) {
	target, err := extractFirstURL(longURL)
	if err != nil {
		return models.URLRecord{}, err
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return models.URLRecord{}, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	short, err := idgen.GenerateUnique(ctx, idgen.CodeLength, s.db.IsShortExists)
	if err != nil {
		return models.URLRecord{}, err
	}

	record := models.URLRecord{
		ShortCode: short,
		LongURL:   target,
		OwnerID:   ownerID,
	}
	if err := s.db.InsertURL(ctx, record, tx); err != nil {
		return models.URLRecord{}, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return models.URLRecord{}, err
	}

	return record, nil
}

// GetURLForOwner returns the record stored under short when it belongs to
// ownerID. Unknown codes yield models.ErrNotFound, other users' records
// models.ErrNotOwner.
func (s *Service) GetURLForOwner(ctx context.Context, short, ownerID string) (models.URLRecord, error) {
	record, found, err := s.db.FindURLByShort(ctx, short)
	if err != nil {
		return models.URLRecord{}, err
	}
	if !found {
		return models.URLRecord{}, fmt.Errorf("%q: %w", short, models.ErrNotFound)
	}
	if record.OwnerID != ownerID {
		return models.URLRecord{}, fmt.Errorf("%q: %w", short, models.ErrNotOwner)
	}

	return record, nil
}

// UpdateLongURL changes the target of a record after checking ownership.
func (s *Service) UpdateLongURL(ctx context.Context, short, newLongURL, ownerID string) error {
	if _, err := s.GetURLForOwner(ctx, short, ownerID); err != nil {
		return err
	}

	target, err := extractFirstURL(newLongURL)
	if err != nil {
		return err
	}

	return s.db.UpdateLongURL(ctx, short, target)
}

// DeleteURL removes a record after checking ownership.
func (s *Service) DeleteURL(ctx context.Context, short, ownerID string) error {
	if _, err := s.GetURLForOwner(ctx, short, ownerID); err != nil {
		return err
	}

	return s.db.DeleteURL(ctx, short)
}

// URLsForOwner returns the records owned by ownerID in insertion order. An
// empty or unknown owner yields an empty slice, not an error.
func (s *Service) URLsForOwner(ctx context.Context, ownerID string) ([]models.URLRecord, error) {
	if ownerID == "" {
		return []models.URLRecord{}, nil
	}

	return s.db.GetURLsForOwner(ctx, ownerID)
}

// ResolveShort returns the redirect target of a short code and records the
// visit asynchronously.
func (s *Service) ResolveShort(ctx context.Context, short string) (string, bool, error) {
	record, found, err := s.db.FindURLByShort(ctx, short)
	if err != nil || !found {
		return "", found, err
	}

	if s.visits != nil {
		s.visits.Track(short)
	}

	return record.LongURL, true, nil
}

// InternalStats returns the URL and user counts.
func (s *Service) InternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.GetNumberOfURLs(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ShortURL formats the public address of a short code.
func (s *Service) ShortURL(shortCode string) string {
	return s.shortURLBase + "/u/" + shortCode
}
