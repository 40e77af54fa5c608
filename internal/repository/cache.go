package repository

import (
	"context"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

/* Пользователь не меняется после регистрации, поэтому кэш по id не устаревает.
 * Поиск по email не кэшируется: при логине нужен свежий хэш пароля из хранилища. */
type cachedUserRepo struct {
	next   UserRepository
	cache  *expirable.LRU[string, model.User]
	logger *zap.Logger
}

// WithUserCache wraps next with an LRU cache for GetByID. A non-positive size or ttl disables caching.
func WithUserCache(logger *zap.Logger, next UserRepository, size int, ttl time.Duration) UserRepository {
	if size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedUserRepo{
		next:   next,
		cache:  expirable.NewLRU[string, model.User](size, nil, ttl),
		logger: logger,
	}
}

func (r *cachedUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	user, err := r.next.Create(ctx, name, email, passwordHash)
	if err != nil {
		return nil, err
	}
	r.cache.Add(user.ID, *user)
	return user, nil
}

func (r *cachedUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *cachedUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if cached, ok := r.cache.Get(id); ok {
		r.logger.Debug("User cache hit", zap.String("user_guid", id))
		return &cached, nil
	}
	user, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(user.ID, *user)
	return user, nil
}
