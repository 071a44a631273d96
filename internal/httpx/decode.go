package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DecodeBody runs the checks every body-carrying endpoint performs: size cap,
// content type, strict JSON decode, single-object body, struct validation.
// It writes the error response itself and reports whether the caller may
// proceed.
func DecodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validate, logger *zap.Logger, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		WriteError(w, http.StatusUnsupportedMediaType, ErrorResponse[any]{
			Code:    ErrUnsupportedMedia,
			Message: "Content-Type must be application/json",
		})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		logger.Warn("failed to decode request body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, ErrorResponse[any]{
			Code:    ErrInvalidJSON,
			Message: "invalid request body",
		})
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF { // check if there's any trailing data
		logger.Warn("trailing data after JSON body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, ErrorResponse[any]{
			Code:    ErrInvalidJSON,
			Message: "request body must contain a single JSON object",
		})
		return false
	}

	if v == nil {
		return true
	}
	if err := v.Struct(req); err != nil {
		logger.Warn("request validation failed", zap.Error(err))
		fields := ValidationDetails(err)
		WriteError(w, http.StatusUnprocessableEntity, ErrorResponse[[]FieldError]{
			Code:    ErrValidationFailed,
			Message: "validation failed",
			Details: fields,
		})
		return false
	}
	return true
}
