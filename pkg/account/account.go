// Package account manages merchant accounts and verifies their credentials.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no account matches.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateUsername is returned by a Store when the username is taken.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrUsernameTaken is returned by Service.Create for an existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrMissingCredentials is returned when a username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Account is a merchant login.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Summary is the listing view of an account.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public view of a.
func (a *Account) Summary() Summary {
	return Summary{ID: a.ID, Username: a.Username}
}

// Store defines account persistence. Usernames are case-sensitively unique.
type Store interface {
	// Create inserts a new account. Returns ErrDuplicateUsername if the
	// username already exists.
	Create(ctx context.Context, a *Account) error

	// GetByUsername returns ErrNotFound when no account matches.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByID returns ErrNotFound when no account matches.
	GetByID(ctx context.Context, id string) (*Account, error)

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]Summary, error)
}

// ValidationError lists every rule a create request violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}
