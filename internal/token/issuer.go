// Package token mints and validates opaque bearer tokens.
//
// A token is Valid from the moment it is minted until either its lifetime runs
// out (Expired) or it is explicitly revoked (Revoked). Both are terminal.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/TooLazyToCreate/passport-auth/internal/repository"
	"go.uber.org/zap"
)

type UserFinder interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type Issuer struct {
	logger   *zap.Logger
	secret   []byte
	lifetime time.Duration
	users    UserFinder
	tokens   repository.TokenRepository
	now      func() time.Time
}

func NewIssuer(logger *zap.Logger, secret []byte, lifetime time.Duration, users UserFinder, tokens repository.TokenRepository) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	return &Issuer{
		logger:   logger,
		secret:   secret,
		lifetime: lifetime,
		users:    users,
		tokens:   tokens,
		now:      time.Now,
	}, nil
}

// WithClock replaces the time source used for issuance and expiry checks.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Mint issues a new token for an existing user. Unknown users yield model.ErrNotFound.
func (i *Issuer) Mint(ctx context.Context, userID string) (string, *model.Token, error) {
	if _, err := i.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", nil, fmt.Errorf("mint token for %q: %w", userID, model.ErrNotFound)
		}
		return "", nil, fmt.Errorf("mint token: %w", err)
	}

	id, err := randomBytes(idLength)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}
	tokenString, err := encode(i.secret, id)
	if err != nil {
		return "", nil, fmt.Errorf("mint token: %w", err)
	}

	issuedAt := i.now().UTC()
	record := &model.Token{
		Hash:      storageKey(id),
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(i.lifetime),
	}
	if err = i.tokens.Create(ctx, record); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", nil, fmt.Errorf("mint token for %q: %w", userID, model.ErrNotFound)
		}
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	i.logger.Debug("Token minted", zap.String("user_guid", userID), zap.Time("expires_at", record.ExpiresAt))
	return tokenString, record, nil
}

// Validate resolves a token to its user id. Failures wrap ErrInvalid and are one of
// ErrMalformed, ErrNotFound, ErrExpired or ErrRevoked; any other error is a storage failure.
func (i *Issuer) Validate(ctx context.Context, tokenString string) (string, error) {
	id, err := decode(i.secret, tokenString)
	if err != nil {
		return "", err
	}
	record, err := i.tokens.GetByHash(ctx, storageKey(id))
	if errors.Is(err, model.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	/* Отзыв важнее истечения: отозванный токен всегда отвечает ErrRevoked */
	if record.Revoked() {
		return "", ErrRevoked
	}
	if record.Expired(i.now()) {
		return "", ErrExpired
	}
	return record.UserID, nil
}

// Revoke marks the token revoked. Unknown and already revoked tokens yield ErrNotFound.
func (i *Issuer) Revoke(ctx context.Context, tokenString string) error {
	id, err := decode(i.secret, tokenString)
	if err != nil {
		return err
	}
	err = i.tokens.Revoke(ctx, storageKey(id), i.now().UTC())
	if errors.Is(err, model.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (i *Issuer) PurgeExpired(ctx context.Context) (int64, error) {
	return i.tokens.DeleteExpired(ctx, i.now().UTC())
}
