// Package session issues, validates and expires opaque bearer tokens for the
// admin and merchant login domains. Sessions live in process memory only;
// restarting the server invalidates every token.
package session

import (
	"context"
	"errors"
	"time"
)

// Domain identifies an independent identity space. Tokens issued in one
// domain are never valid in another.
type Domain string

const (
	// DomainAdmin is the single shared admin identity.
	DomainAdmin Domain = "admin"

	// DomainMerchant holds per-account merchant identities.
	DomainMerchant Domain = "merchant"
)

// DefaultTTL is the fixed session lifetime, measured from issuance.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNoSession is returned when a token is not present in the domain.
	ErrNoSession = errors.New("no such session")

	// ErrExpired is returned when a token was found but has outlived its TTL.
	// The entry is removed as part of the lookup.
	ErrExpired = errors.New("session expired")
)

// Session is an authenticated login event carrying a domain-specific payload.
type Session[T any] struct {
	// Token is the opaque bearer token presented by the client.
	Token string

	// Domain is the identity space the token belongs to.
	Domain Domain

	// CreatedAt is when the login succeeded.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt plus the authority's TTL. It is never extended.
	ExpiresAt time.Time

	// Payload holds the identity established at login.
	Payload T
}

// Authority defines the operations of a token session domain.
type Authority[T any] interface {
	// Issue creates a session for payload and returns its token.
	// Expired sessions are swept before the new one is inserted.
	Issue(ctx context.Context, payload T) (string, error)

	// Validate resolves a token. It returns ErrNoSession for unknown tokens
	// and ErrExpired (after deleting the entry) for stale ones.
	Validate(ctx context.Context, token string) (*Session[T], error)

	// Revoke removes a token. Revoking an unknown token is a no-op.
	Revoke(ctx context.Context, token string) error

	// Sweep removes all expired sessions and reports how many were removed.
	Sweep(ctx context.Context) int

	// Len returns the number of stored sessions, expired or not.
	Len() int

	// Close stops background routines.
	Close() error
}
