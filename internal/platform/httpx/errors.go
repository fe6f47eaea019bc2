package httpx

import (
	"errors"
	"net/http"

	"github.com/helioshq/helios-admin/internal/backend"
)

// RespondError maps directory errors to envelope responses. Unknown errors
// collapse to a generic 500 so internals never leak to the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrUserNotFound),
		errors.Is(err, backend.ErrInvalidCredentials),
		errors.Is(err, backend.ErrInvalidToken),
		errors.Is(err, backend.ErrNotAuthenticated):
		Fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, backend.ErrEmailTaken):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, backend.ErrPasswordTooShort),
		errors.Is(err, backend.ErrEmptyAvatar):
		Fail(w, http.StatusBadRequest, err.Error())
	default:
		var op *backend.OpError
		if errors.As(err, &op) {
			Fail(w, http.StatusBadRequest, op.Message)
			return
		}
		Fail(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
