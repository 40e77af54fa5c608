package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

/* Ожидаемая схема:
 *   users(id uuid primary key, name text, email text unique, password_hash text, created_at timestamptz)
 *   tokens(hash text primary key, user_guid uuid references users(id), issued_at timestamptz,
 *          expires_at timestamptz, revoked_at timestamptz null) */

type userRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUserRepository(logger *zap.Logger, db *sql.DB) UserRepository {
	return &userRepo{
		db:     db,
		logger: logger,
	}
}

func (r *userRepo) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, user.Name, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			r.logger.Debug("Duplicate email rejected by unique constraint", zap.String("email", email))
			return nil, model.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	/* Невалидный uuid postgres отвергнет с ошибкой, а не вернёт пустой результат */
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrNotFound
	}
	return r.getOne(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

type tokenRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTokenRepository(logger *zap.Logger, db *sql.DB) TokenRepository {
	return &tokenRepo{
		db:     db,
		logger: logger,
	}
}

func (r *tokenRepo) Create(ctx context.Context, token *model.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (hash, user_guid, issued_at, expires_at) VALUES ($1, $2, $3, $4)`,
		token.Hash, token.UserID, token.IssuedAt, token.ExpiresAt,
	)
	if err != nil {
		if isPqError(err, pqForeignKeyViolation) {
			return model.ErrNotFound
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*model.Token, error) {
	token := &model.Token{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT hash, user_guid, issued_at, expires_at, revoked_at FROM tokens WHERE hash = $1`, hash,
	).Scan(&token.Hash, &token.UserID, &token.IssuedAt, &token.ExpiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select token: %w", err)
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	return token, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, hash string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET revoked_at = $2 WHERE hash = $1 AND revoked_at IS NULL`, hash, at)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= $1 AND revoked_at IS NULL`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}

func isPqError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
