// Package postgres provides PostgreSQL storage for merchant accounts.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/shoppermo/shoppermo-server/pkg/account"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// accountColumns lists columns returned by account SELECT queries.
var accountColumns = []string{"id", "username", "password_hash", "created_at"}

// Store implements account.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL account store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts an account. A unique violation on username maps to
// account.ErrDuplicateUsername.
func (s *Store) Create(ctx context.Context, a *account.Account) error {
	query, args, err := psq.Insert("users").
		Columns(accountColumns...).
		Values(a.ID, a.Username, a.PasswordHash, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return account.ErrDuplicateUsername
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// GetByUsername retrieves an account by exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.getOne(ctx, sq.Eq{"username": username})
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*account.Account, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

func (s *Store) getOne(ctx context.Context, where sq.Eq) (*account.Account, error) {
	query, args, err := psq.Select(accountColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	var a account.Account
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	return &a, nil
}

// List returns account summaries ordered by creation time.
func (s *Store) List(ctx context.Context) ([]account.Summary, error) {
	query, args, err := psq.Select("id", "username").
		From("users").
		OrderBy("created_at ASC", "username ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []account.Summary{}
	for rows.Next() {
		var sum account.Summary
		if err := rows.Scan(&sum.ID, &sum.Username); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}
	return result, nil
}

// Verify interface compliance.
var _ account.Store = (*Store)(nil)
