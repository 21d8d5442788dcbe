package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmint/gatehouse/core"
)

func newUser(id, email, wallet string) *core.User {
	now := time.Now()
	return &core.User{
		ID:            id,
		Email:         email,
		WalletAddress: wallet,
		Role:          core.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestMemoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newUser("u1", "a@x.com", "0xAbC123")))

	u, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)

	// Wallet lookups are case-insensitive.
	u, err = s.FindByWallet(ctx, "0xABC123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = s.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
	_, err = s.FindByID(ctx, "u2")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
	_, err = s.FindByWallet(ctx, "0xdeadbeef")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newUser("u1", "a@x.com", "")))
	err := s.Create(ctx, newUser("u2", "a@x.com", ""))
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	// Wallet-only accounts have no email and never collide on it.
	require.NoError(t, s.Create(ctx, newUser("u3", "", "0x1")))
	require.NoError(t, s.Create(ctx, newUser("u4", "", "0x2")))
}

func TestMemoryStoreUpdateRole(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, newUser("u1", "a@x.com", "")))

	u, err := s.UpdateRole(ctx, "u1", core.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)

	u, err = s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)

	_, err = s.UpdateRole(ctx, "missing", core.RoleAdmin)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newUser("u1", "a@x.com", "")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, newUser("u2", "b@x.com", "")))

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID, "ordered by creation time")

	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.FindByID(ctx, "u1")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "u1"), core.ErrUserNotFound)
}
