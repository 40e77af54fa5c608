package repository

import (
	"context"
	"testing"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingUserRepo struct {
	UserRepository
	byID int
}

func (r *countingUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.byID++
	return r.UserRepository.GetByID(ctx, id)
}

func TestWithUserCache_ServesRepeatedLookups(t *testing.T) {
	ctx := context.Background()
	inner := &countingUserRepo{UserRepository: NewMemoryUserRepository()}
	repo := WithUserCache(zap.NewNop(), inner, 16, time.Minute)

	user, err := repo.Create(ctx, "Ann", "ann@x.com", "hash")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		found, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	}
	assert.Equal(t, 0, inner.byID)
}

func TestWithUserCache_MissGoesToStore(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryUserRepository()
	user, err := memory.Create(ctx, "Ann", "ann@x.com", "hash")
	require.NoError(t, err)

	inner := &countingUserRepo{UserRepository: memory}
	repo := WithUserCache(zap.NewNop(), inner, 16, time.Minute)

	_, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.byID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWithUserCache_Disabled(t *testing.T) {
	inner := NewMemoryUserRepository()
	assert.Same(t, UserRepository(inner), WithUserCache(zap.NewNop(), inner, 0, time.Minute))
	assert.Same(t, UserRepository(inner), WithUserCache(zap.NewNop(), inner, 10, 0))
}
