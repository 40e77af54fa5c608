package repository

import (
	"context"
	"sync"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/google/uuid"
)

/* Хранилища в памяти: для разработки без postgres и для тестов.
 * Наружу всегда отдаются копии, чтобы вызывающий код не мог изменить состояние в обход блокировки. */

type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, name, email, passwordHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return nil, model.ErrDuplicateEmail
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]model.Token
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]model.Token)}
}

func (r *MemoryTokenRepository) Create(_ context.Context, token *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Hash] = *token
	return nil
}

func (r *MemoryTokenRepository) GetByHash(_ context.Context, hash string) (*model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[hash]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &token, nil
}

func (r *MemoryTokenRepository) Revoke(_ context.Context, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[hash]
	if !ok || token.Revoked() {
		return model.ErrNotFound
	}
	token.RevokedAt = &at
	r.tokens[hash] = token
	return nil
}

func (r *MemoryTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for hash, token := range r.tokens {
		if !token.Revoked() && !before.Before(token.ExpiresAt) {
			delete(r.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

var (
	_ UserRepository  = (*MemoryUserRepository)(nil)
	_ TokenRepository = (*MemoryTokenRepository)(nil)
)
