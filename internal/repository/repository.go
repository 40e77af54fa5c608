package repository

import (
	"context"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
)

/* Email уникален: реализации обязаны проверять это атомарно (уникальный индекс или одна критическая секция),
 * а не связкой "проверить, потом вставить". */
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	GetByHash(ctx context.Context, hash string) (*model.Token, error)
	// Revoke returns model.ErrNotFound for unknown and already revoked tokens.
	Revoke(ctx context.Context, hash string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
