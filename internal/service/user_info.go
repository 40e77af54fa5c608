package service

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"github.com/TooLazyToCreate/passport-auth/internal/token"
	"go.uber.org/zap"
)

/* Должен стоять за Authenticate */
func (service *AuthService) HandleUserInfo(w http.ResponseWriter, req *http.Request) {
	userID, ok := UserIDFromContext(req.Context())
	if !ok {
		service.writeUnauthorised(w)
		return
	}

	user, err := service.Profile(req.Context(), userID)
	if errors.Is(err, model.ErrNotFound) {
		service.logger.Error("Token refers to a missing user",
			zap.String("ip", req.RemoteAddr), zap.String("user_guid", userID))
		service.writeUnauthorised(w)
		return
	}
	if err != nil {
		service.logger.Error("Failed to load user", zap.Error(err), zap.String("user_guid", userID))
		service.writeInternalError(w)
		return
	}
	service.writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (service *AuthService) HandleLogout(w http.ResponseWriter, req *http.Request) {
	tokenString := bearerFromContext(req.Context())
	err := service.Logout(req.Context(), tokenString)
	if errors.Is(err, token.ErrInvalid) {
		service.logger.Info("Logout with unknown token", zap.String("reason", token.Reason(err)), zap.String("ip", req.RemoteAddr))
		service.writeUnauthorised(w)
		return
	}
	if err != nil {
		service.logger.Error("Failed to revoke token", zap.Error(err), zap.String("ip", req.RemoteAddr))
		service.writeInternalError(w)
		return
	}
	userID, _ := UserIDFromContext(req.Context())
	service.logger.Debug("Token has been revoked", zap.String("user_guid", userID))
	service.writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
