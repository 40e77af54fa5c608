package service

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"go.uber.org/zap"
)

func (service *AuthService) HandleLogin(w http.ResponseWriter, req *http.Request) {
	fields, err := readFields(w, req)
	if err != nil {
		service.metrics.RecordLogin("failure")
		service.logger.Error("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
		service.writeUnauthorised(w)
		return
	}

	tokenString, err := service.Login(req.Context(), fields["email"], fields["password"])
	switch {
	case err == nil:
		service.metrics.RecordLogin("success")
		service.logger.Debug("New token was given", zap.String("ip", req.RemoteAddr))
		service.writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
	case errors.Is(err, model.ErrAuthenticationFailed):
		/* Не сообщаем, что именно не так: email или пароль */
		service.metrics.RecordLogin("failure")
		service.logger.Info("Login failed", zap.String("ip", req.RemoteAddr))
		service.writeUnauthorised(w)
	default:
		service.metrics.RecordLogin("error")
		service.logger.Error("Login failed with internal error", zap.Error(err), zap.String("ip", req.RemoteAddr))
		service.writeInternalError(w)
	}
}
