package guard

import (
	"errors"
	"net/http"

	"github.com/mehmetcc/agora/internal/httpx"
)

// WriteError maps a guard failure onto the wire: the three token failure
// modes collapse into one 401, a role failure is a 403 and is never
// downgraded.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case IsUnauthenticated(err):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
			Code:    httpx.ErrUnauthorized,
			Message: "authentication required",
		})
	case errors.Is(err, ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
			Code:    httpx.ErrForbidden,
			Message: "admin privileges required",
		})
	default:
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInternal,
			Message: "internal server error",
		})
	}
}
