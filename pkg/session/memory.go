package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// maxTokenAttempts bounds regeneration when a fresh token collides with a live one.
const maxTokenAttempts = 3

// errTokenCollision is returned when every generated token was already in use.
var errTokenCollision = errors.New("could not generate a unique session token")

// Option configures a MemoryStore.
type Option func(*options)

type options struct {
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// WithTTL overrides the session lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, letting tests control expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTokenGenerator replaces GenerateToken.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(o *options) {
		if gen != nil {
			o.newToken = gen
		}
	}
}

// MemoryStore implements Authority with a mutex-guarded map. Every
// read-modify-write sequence (sweep then insert, lookup then delete) runs
// under a single lock acquisition.
type MemoryStore[T any] struct {
	mu       sync.Mutex
	sessions map[string]*Session[T]

	domain   Domain
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMemoryStore creates an empty session store for domain.
func NewMemoryStore[T any](domain Domain, opts ...Option) *MemoryStore[T] {
	o := options{
		ttl:      DefaultTTL,
		now:      time.Now,
		newToken: GenerateToken,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{
		sessions: make(map[string]*Session[T]),
		domain:   domain,
		ttl:      o.ttl,
		now:      o.now,
		newToken: o.newToken,
	}
}

// Domain returns the identity space served by this store.
func (s *MemoryStore[T]) Domain() Domain {
	return s.domain
}

// Issue sweeps expired sessions, then stores a new session for payload.
func (s *MemoryStore[T]) Issue(_ context.Context, payload T) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if n := s.sweepLocked(now); n > 0 {
		slog.Debug("session: swept expired", "domain", s.domain, "count", n)
	}

	for range maxTokenAttempts {
		token, err := s.newToken()
		if err != nil {
			return "", err
		}
		if _, taken := s.sessions[token]; taken {
			continue
		}
		s.sessions[token] = &Session[T]{
			Token:     token,
			Domain:    s.domain,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
			Payload:   payload,
		}
		return token, nil
	}
	return "", errTokenCollision
}

// Validate returns a copy of the session for token.
func (s *MemoryStore[T]) Validate(_ context.Context, token string) (*Session[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, token)
		return nil, ErrExpired
	}
	cp := *sess
	return &cp, nil
}

// Revoke deletes token unconditionally.
func (s *MemoryStore[T]) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// Sweep removes expired sessions.
func (s *MemoryStore[T]) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sweepLocked(s.now())
}

// Len returns the number of stored sessions.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// sweepLocked removes expired sessions. The caller must hold s.mu.
func (s *MemoryStore[T]) sweepLocked(now time.Time) int {
	removed := 0
	for token, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// expired reports whether the session's age has reached the TTL.
func (*MemoryStore[T]) expired(sess *Session[T], now time.Time) bool {
	return !now.Before(sess.ExpiresAt)
}

// StartCleanupRoutine starts a background goroutine that periodically sweeps
// expired sessions. The goroutine is stopped when Close is called.
func (s *MemoryStore[T]) StartCleanupRoutine(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(ctx); n > 0 {
					slog.Debug("session: cleanup removed expired", "domain", s.domain, "count", n)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
// It is safe to call Close even if StartCleanupRoutine was never called.
func (s *MemoryStore[T]) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
	return nil
}

// Verify interface compliance.
var _ Authority[struct{}] = (*MemoryStore[struct{}])(nil)
