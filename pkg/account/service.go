package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10

	// MinUsernameLength is the minimum username length in characters.
	MinUsernameLength = 3

	// MinPasswordLength is the minimum password length in characters.
	MinPasswordLength = 6

	// MaxPasswordBytes is the longest password bcrypt will hash.
	MaxPasswordBytes = 72

	msgRequired         = "Username and password are required"
	msgUsernameTooShort = "Username must be at least 3 characters"
	msgPasswordTooShort = "Password must be at least 6 characters"
	msgPasswordTooLong  = "Password must be at most 72 bytes"
)

// Service creates accounts and checks merchant credentials.
type Service struct {
	store Store
	cost  int
	now   func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBcryptCost overrides the hash cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithServiceClock replaces time.Now for CreatedAt stamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an account service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		cost:  BcryptCost,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new account, returning its summary.
func (s *Service) Create(ctx context.Context, username, password string) (Summary, error) {
	if err := validateNew(username, password); err != nil {
		return Summary{}, err
	}

	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Summary{}, fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return Summary{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Summary{}, fmt.Errorf("hashing password: %w", err)
	}

	a := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return Summary{}, ErrUsernameTaken
		}
		return Summary{}, fmt.Errorf("creating account: %w", err)
	}

	slog.Info("account: created", "account_id", a.ID, "username", a.Username)
	return a.Summary(), nil
}

// Authenticate verifies username and password. Unknown usernames and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	a, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Compare against a throwaway hash so both failure paths cost one bcrypt check.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// List returns all account summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shoppermo-dummy-password"), s.cost)
	})
	return s.dummyHash
}

// validateNew applies the create rules, collecting every violation.
func validateNew(username, password string) error {
	if username == "" || password == "" {
		return &ValidationError{Problems: []string{msgRequired}}
	}

	var problems []string
	if utf8.RuneCountInString(username) < MinUsernameLength {
		problems = append(problems, msgUsernameTooShort)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, msgPasswordTooShort)
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, msgPasswordTooLong)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
