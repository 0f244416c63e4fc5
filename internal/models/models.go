// Package models defines the data records, request payloads and error kinds
// shared between the storage, service and router layers.
package models

import "errors"

// URLRecord is a single shortened URL: the short code it is reachable under,
// the target it redirects to, and the user who created it.
type URLRecord struct {
	ShortCode string `json:"short_code"`
	LongURL   string `json:"long_url" validate:"required,url"`
	OwnerID   string `json:"owner_id"`
	Visits    int64  `json:"visits"`
}

// CreateURLRequest carries the form input for creating or editing a URL.
type CreateURLRequest struct {
	LongURL string `validate:"required,url"`
}

// CredentialsRequest carries the form input for registration and login.
type CredentialsRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// InternalStatsResponse is the payload of the trusted-subnet stats endpoint.
type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

// Storage backend kinds, selected from configuration.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// Error kinds returned by the service layer. Handlers map each kind to a
// fixed HTTP status.
var (
	// ErrValidation signals a missing or malformed required field.
	ErrValidation = errors.New("missing or invalid required field")

	// ErrConflict signals an email that is already registered.
	ErrConflict = errors.New("email is already registered")

	// ErrNotFound signals an unknown user, email or short code.
	ErrNotFound = errors.New("record not found")

	// ErrBadCredentials signals a password that does not match the stored hash.
	ErrBadCredentials = errors.New("invalid credentials")

	// ErrNotOwner signals an authenticated request for a record that belongs
	// to another user.
	ErrNotOwner = errors.New("record belongs to another user")
)
