package upstream

import (
	"errors"
	"net/http"

	"github.com/mehmetcc/agora/internal/httpx"
)

// WriteError translates a backend failure into the gateway's JSON error
// surface. Backend replies keep their status so the client sees what the
// backend decided; transport failures become a 502. Nothing is retried.
func WriteError(w http.ResponseWriter, err error, fallback string) {
	var ue *Error
	if errors.As(err, &ue) {
		msg := ue.Message
		if msg == "" {
			msg = fallback
		}
		httpx.WriteError(w, ue.Status, httpx.ErrorResponse[any]{
			Code:    codeFor(ue.Status),
			Message: msg,
		})
		return
	}
	httpx.WriteError(w, http.StatusBadGateway, httpx.ErrorResponse[any]{
		Code:    httpx.ErrBadGateway,
		Message: fallback,
	})
}

func codeFor(status int) httpx.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return httpx.ErrUnauthorized
	case http.StatusForbidden:
		return httpx.ErrForbidden
	case http.StatusNotFound:
		return httpx.ErrNotFound
	case http.StatusConflict:
		return httpx.ErrConflict
	}
	if status >= 500 {
		return httpx.ErrBadGateway
	}
	return httpx.ErrInternal
}
