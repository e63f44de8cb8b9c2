package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoppermo/shoppermo-server/pkg/account"
)

const (
	pgTestID       = "3f0c3a2e-8f5d-4b43-9a7c-1d2e3f4a5b6c"
	pgTestUsername = "merchant1"
	pgTestHash     = "$2a$10$abcdefghijklmnopqrstuv"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func newTestAccount() *account.Account {
	return &account.Account{
		ID:           pgTestID,
		Username:     pgTestUsername,
		PasswordHash: pgTestHash,
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	store, mock := newMockStore(t)
	a := newTestAccount()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(a.ID, a.Username, a.PasswordHash, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	err := store.Create(context.Background(), newTestAccount())
	assert.ErrorIs(t, err, account.ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("connection refused"))

	err := store.Create(context.Background(), newTestAccount())
	require.Error(t, err)
	assert.NotErrorIs(t, err, account.ErrDuplicateUsername)
	assert.Contains(t, err.Error(), "inserting account")
}

func TestGetByUsername_Success(t *testing.T) {
	store, mock := newMockStore(t)
	want := newTestAccount()

	rows := sqlmock.NewRows(accountColumns).
		AddRow(want.ID, want.Username, want.PasswordHash, want.CreatedAt)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1 LIMIT 1").
		WithArgs(pgTestUsername).
		WillReturnRows(rows)

	got, err := store.GetByUsername(context.Background(), pgTestUsername)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestGetByID(t *testing.T) {
	store, mock := newMockStore(t)
	want := newTestAccount()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(pgTestID).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(want.ID, want.Username, want.PasswordHash, want.CreatedAt))

	got, err := store.GetByID(context.Background(), pgTestID)
	require.NoError(t, err)
	assert.Equal(t, pgTestUsername, got.Username)
}

func TestGetByID_DBError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WillReturnError(errors.New("timeout"))

	_, err := store.GetByID(context.Background(), pgTestID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, account.ErrNotFound)
}

func TestList(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "username"}).
		AddRow("1", "alice").
		AddRow("2", "bob")
	mock.ExpectQuery("SELECT id, username FROM users ORDER BY created_at ASC, username ASC").
		WillReturnRows(rows)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []account.Summary{{ID: "1", Username: "alice"}, {ID: "2", Username: "bob"}}, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestList_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username FROM users").
		WillReturnError(errors.New("connection reset"))

	_, err := store.List(context.Background())
	assert.Error(t, err)
}

func TestList_ScanError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))

	_, err := store.List(context.Background())
	assert.Error(t, err)
}
