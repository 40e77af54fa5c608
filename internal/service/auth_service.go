package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/TooLazyToCreate/passport-auth/internal/hasher"
	"github.com/TooLazyToCreate/passport-auth/internal/metrics"
	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/TooLazyToCreate/passport-auth/internal/repository"
	"github.com/TooLazyToCreate/passport-auth/internal/token"
	"go.uber.org/zap"
)

type AuthService struct {
	logger    *zap.Logger
	userRepo  repository.UserRepository
	hasher    hasher.Hasher
	issuer    *token.Issuer
	metrics   metrics.Recorder
	dummyHash string
}

func NewAuthService(logger *zap.Logger, userRepo repository.UserRepository, h hasher.Hasher, issuer *token.Issuer, recorder metrics.Recorder) (*AuthService, error) {
	/* Хэш-пустышка: с ним сверяем пароль, когда email не найден, чтобы время ответа не выдавало наличие аккаунта */
	dummyHash, err := h.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &AuthService{
		logger:    logger,
		userRepo:  userRepo,
		hasher:    h,
		issuer:    issuer,
		metrics:   recorder,
		dummyHash: dummyHash,
	}, nil
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// Register validates the input, stores the user and mints their first token.
// Field problems, including an already taken email, come back as *model.ValidationError.
func (service *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	input.Name = normalizeName(input.Name)
	input.Email = normalizeEmail(input.Email)
	if verr := validateRegistration(input); verr != nil {
		return "", verr
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if errors.Is(err, hasher.ErrPasswordTooLong) {
		verr := model.NewValidationError()
		verr.Add("password", "The password must not be greater than 72 characters.")
		verr.Cause = err
		return "", verr
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := service.userRepo.Create(ctx, input.Name, input.Email, passwordHash)
	if errors.Is(err, model.ErrDuplicateEmail) {
		verr := model.NewValidationError()
		verr.Add("email", "The email has already been taken.")
		verr.Cause = err
		return "", verr
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	/* Пользователь уже сохранён: без транзакции откатить его нельзя, повторная регистрация упрётся в занятый email,
	 * войти можно через /api/login */
	tokenString, _, err := service.issuer.Mint(ctx, user.ID)
	if err != nil {
		service.logger.Error("User stored but token was not issued", zap.String("user_guid", user.ID), zap.Error(err))
		return "", fmt.Errorf("issue token for new user %s: %w", user.ID, err)
	}
	return tokenString, nil
}

// Login checks the credentials and mints a token. Unknown email and wrong password
// both yield model.ErrAuthenticationFailed.
func (service *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", model.ErrAuthenticationFailed
	}

	user, err := service.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		service.hasher.Verify(password, service.dummyHash)
		return "", model.ErrAuthenticationFailed
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if !service.hasher.Verify(password, user.PasswordHash) {
		return "", model.ErrAuthenticationFailed
	}

	tokenString, _, err := service.issuer.Mint(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (service *AuthService) Profile(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := service.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (service *AuthService) Logout(ctx context.Context, tokenString string) error {
	return service.issuer.Revoke(ctx, tokenString)
}
