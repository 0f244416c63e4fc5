// Package user defines the account model used for authentication and for
// associating shortened URLs with their owner.
package user

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, assigned at registration.
	ID string `json:"id"`

	// Email is the address the user registered with. Unique among users.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password. The plain
	// password is never stored.
	PasswordHash string `json:"password_hash"`
}
