package service

import (
	"net/mail"
	"strings"

	"github.com/TooLazyToCreate/passport-auth/internal/model"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

/* Правила: name required; email required|email; password required; c_password required|same:password.
 * Пароли не обрезаем, пробелы в них значимы. */
func validateRegistration(input RegisterInput) *model.ValidationError {
	verr := model.NewValidationError()

	if input.Name == "" {
		verr.Add("name", "The name field is required.")
	}

	if input.Email == "" {
		verr.Add("email", "The email field is required.")
	} else if !isEmail(input.Email) {
		verr.Add("email", "The email must be a valid email address.")
	}

	if strings.TrimSpace(input.Password) == "" {
		verr.Add("password", "The password field is required.")
	}

	if strings.TrimSpace(input.PasswordConfirm) == "" {
		verr.Add("c_password", "The c password field is required.")
	} else if input.PasswordConfirm != input.Password {
		verr.Add("c_password", "The c password and password must match.")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func isEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
