package admin

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shoppermo/shoppermo-server/pkg/metrics"
	"github.com/shoppermo/shoppermo-server/pkg/session"
)

var (
	// ErrNotConfigured means no admin password is set.
	ErrNotConfigured = errors.New("admin password not configured")

	// ErrInvalidPassword means the supplied password did not match.
	ErrInvalidPassword = errors.New("invalid admin password")
)

// Identity is the payload of an admin session. There is a single shared
// admin, so it carries nothing beyond the session itself.
type Identity struct{}

// Authenticator checks the shared admin password and manages admin sessions.
type Authenticator struct {
	digest   [sha256.Size]byte
	set      bool
	sessions session.Authority[Identity]
}

// NewAuthenticator creates an authenticator for password. An empty password
// leaves the admin surface disabled.
func NewAuthenticator(password string, sessions session.Authority[Identity]) *Authenticator {
	a := &Authenticator{sessions: sessions}
	if password != "" {
		a.digest = sha256.Sum256([]byte(password))
		a.set = true
	} else {
		slog.Warn("admin password is not set; admin panel will be inaccessible")
	}
	return a
}

// Configured reports whether an admin password is set.
func (a *Authenticator) Configured() bool {
	return a.set
}

// Login checks password and issues an admin session token. Expired sessions
// are swept on every attempt: by Issue on success, explicitly on failure.
func (a *Authenticator) Login(ctx context.Context, password string) (string, error) {
	if !a.set {
		metrics.RecordLogin(string(session.DomainAdmin), "unconfigured")
		return "", ErrNotConfigured
	}

	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(got[:], a.digest[:]) != 1 {
		a.sessions.Sweep(ctx)
		metrics.RecordLogin(string(session.DomainAdmin), "invalid")
		return "", ErrInvalidPassword
	}

	token, err := a.sessions.Issue(ctx, Identity{})
	if err != nil {
		metrics.RecordLogin(string(session.DomainAdmin), "error")
		return "", fmt.Errorf("issuing admin session: %w", err)
	}
	metrics.RecordLogin(string(session.DomainAdmin), "success")
	return token, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.sessions.Revoke(ctx, token)
}

// RequireAdmin returns middleware that admits only valid admin sessions.
func (a *Authenticator) RequireAdmin() func(http.Handler) http.Handler {
	return session.RequireSession(a.sessions)
}

// GetSession returns the admin session placed in ctx by RequireAdmin, or nil.
func GetSession(ctx context.Context) *session.Session[Identity] {
	return session.FromContext[Identity](ctx)
}
