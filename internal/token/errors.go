package token

import (
	"errors"
	"fmt"
)

/* Все причины отказа оборачивают ErrInvalid: наружу они схлопываются в один 401,
 * а в логах и метриках различаются. */
var (
	ErrInvalid   = errors.New("invalid token")
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrNotFound  = fmt.Errorf("%w: not found", ErrInvalid)
	ErrExpired   = fmt.Errorf("%w: expired", ErrInvalid)
	ErrRevoked   = fmt.Errorf("%w: revoked", ErrInvalid)
)

// Reason returns a short label for a validation failure, suitable for logs and metric labels.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrRevoked):
		return "revoked"
	default:
		return "unknown"
	}
}
