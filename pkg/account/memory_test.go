package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := &Account{ID: "id-1", Username: "merchant1", PasswordHash: "hash", CreatedAt: time.Now()}

	require.NoError(t, s.Create(ctx, a))
	assert.ErrorIs(t, s.Create(ctx, &Account{ID: "id-2", Username: "merchant1"}), ErrDuplicateUsername)

	byName, err := s.GetByUsername(ctx, "merchant1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byName.ID)

	byID, err := s.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "merchant1", byID.Username)

	_, err = s.GetByUsername(ctx, "MERCHANT1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := &Account{ID: "id-1", Username: "merchant1", PasswordHash: "hash"}
	require.NoError(t, s.Create(ctx, a))

	a.PasswordHash = "mutated"
	got, err := s.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	got.PasswordHash = "mutated"
	again, err := s.GetByUsername(ctx, "merchant1")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, &Account{ID: "3", Username: "carol", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Create(ctx, &Account{ID: "2", Username: "bob", CreatedAt: base}))
	require.NoError(t, s.Create(ctx, &Account{ID: "1", Username: "alice", CreatedAt: base}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{ID: "1", Username: "alice"},
		{ID: "2", Username: "bob"},
		{ID: "3", Username: "carol"},
	}, list)
}
