package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user, err := repo.Create(ctx, "Ann", "ann@x.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.Name)
	assert.Equal(t, "hash", byID.PasswordHash)

	_, err = repo.GetByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	user, err := repo.Create(ctx, "Ann", "ann@x.com", "hash")
	require.NoError(t, err)

	user.Name = "Mallory"

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", stored.Name)
}

func TestMemoryUserRepository_ConcurrentDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	var created, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, "Ann", "ann@x.com", "hash")
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, model.ErrDuplicateEmail):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(31), duplicates.Load())
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryTokenRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTokenRepository()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &model.Token{Hash: "live", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.Token{Hash: "old", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Create(ctx, &model.Token{Hash: "revoked", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Revoke(ctx, "revoked", now.Add(-time.Minute)))

	token, err := repo.GetByHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)
	assert.False(t, token.Revoked())

	require.NoError(t, repo.Revoke(ctx, "live", now))
	token, err = repo.GetByHash(ctx, "live")
	require.NoError(t, err)
	assert.True(t, token.Revoked())

	assert.ErrorIs(t, repo.Revoke(ctx, "live", now), model.ErrNotFound)
	assert.ErrorIs(t, repo.Revoke(ctx, "unknown", now), model.ErrNotFound)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByHash(ctx, "old")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.GetByHash(ctx, "live")
	assert.NoError(t, err)
	token, err = repo.GetByHash(ctx, "revoked")
	require.NoError(t, err)
	assert.True(t, token.Revoked())
}
