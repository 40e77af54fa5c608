package service

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
	"go.uber.org/zap"
)

type validationResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    map[string][]string `json:"data"`
}

/* Ошибки валидации отдаём с 422, а не с 404, как было в исходном контроллере */
func (service *AuthService) HandleRegister(w http.ResponseWriter, req *http.Request) {
	fields, err := readFields(w, req)
	if err != nil {
		service.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed request body"})
		service.logger.Error("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
		return
	}

	tokenString, err := service.Register(req.Context(), RegisterInput{
		Name:            fields["name"],
		Email:           fields["email"],
		Password:        fields["password"],
		PasswordConfirm: fields["c_password"],
	})

	var verr *model.ValidationError
	switch {
	case err == nil:
		service.metrics.RecordRegistration("success")
		service.logger.Debug("User has been registered", zap.String("ip", req.RemoteAddr))
		service.writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
	case errors.As(err, &verr):
		result := "validation_error"
		if errors.Is(err, model.ErrDuplicateEmail) {
			result = "duplicate_email"
		}
		service.metrics.RecordRegistration(result)
		service.logger.Info("Registration rejected", zap.Error(err), zap.String("ip", req.RemoteAddr))
		service.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Success: false,
			Message: "Validation Error.",
			Data:    verr.Fields,
		})
	default:
		service.metrics.RecordRegistration("error")
		service.logger.Error("Registration failed", zap.Error(err), zap.String("ip", req.RemoteAddr))
		service.writeInternalError(w)
	}
}
