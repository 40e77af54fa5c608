package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/TooLazyToCreate/passport-auth/internal/token"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_guid"
	tokenContextKey  contextKey = "bearer_token"
)

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func bearerFromContext(ctx context.Context) string {
	tokenString, _ := ctx.Value(tokenContextKey).(string)
	return tokenString
}

func bearerToken(req *http.Request) (string, bool) {
	header := req.Header.Get("Authorization")
	scheme, tokenString, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tokenString = strings.TrimSpace(tokenString)
	return tokenString, tokenString != ""
}

// Authenticate resolves the bearer token into a user id stored in the request context.
// Every rejection is answered with the same 401; the reason only reaches logs and metrics.
func (service *AuthService) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tokenString, ok := bearerToken(req)
		if !ok {
			service.metrics.RecordTokenRejected("missing")
			service.logger.Info("Bearer token is missing", zap.String("ip", req.RemoteAddr))
			service.writeUnauthorised(w)
			return
		}

		userID, err := service.issuer.Validate(req.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, token.ErrInvalid) {
				service.logger.Error("Token lookup failed", zap.Error(err), zap.String("ip", req.RemoteAddr))
				service.writeInternalError(w)
				return
			}
			reason := token.Reason(err)
			service.metrics.RecordTokenRejected(reason)
			service.logger.Info("Token rejected", zap.String("reason", reason), zap.String("ip", req.RemoteAddr))
			service.writeUnauthorised(w)
			return
		}

		ctx := ContextWithUserID(req.Context(), userID)
		ctx = context.WithValue(ctx, tokenContextKey, tokenString)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
