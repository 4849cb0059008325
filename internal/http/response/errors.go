package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// ErrorResponse is the structured JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Stable client-facing codes, one per taxonomy entry.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeOutOfWindow        = "OUT_OF_WINDOW"
	CodeInvalidQR          = "INVALID_QR"
	CodeZoneMismatch       = "ZONE_MISMATCH"
	CodeLockedOut          = "LOCKED_OUT"
	CodeConcurrentConflict = "CONCURRENT_MODIFICATION"
	CodeDuplicateCode      = "DUPLICATE_CODE"
)

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

// FromDomainError maps the business-error taxonomy to stable HTTP responses.
// Unknown errors become 500s without leaking detail.
func FromDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", CodeNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "visit state does not allow this operation", CodeInvalidTransition)
	case errors.Is(err, domain.ErrOutOfWindow):
		WriteError(w, http.StatusConflict, "visit can only be checked in on its scheduled day", CodeOutOfWindow)
	case errors.Is(err, domain.ErrInvalidQR):
		WriteError(w, http.StatusUnprocessableEntity, "qr code is invalid", CodeInvalidQR)
	case errors.Is(err, domain.ErrZoneMismatch):
		WriteError(w, http.StatusForbidden, "gate is outside your assigned zone", CodeZoneMismatch)
	case errors.Is(err, domain.ErrLockedOut):
		WriteError(w, http.StatusTooManyRequests, "account temporarily locked", CodeLockedOut)
	case errors.Is(err, domain.ErrConcurrentModification):
		WriteError(w, http.StatusConflict, "visit was modified concurrently, retry", CodeConcurrentConflict)
	case errors.Is(err, domain.ErrDuplicateCode):
		WriteError(w, http.StatusConflict, "could not allocate a unique visit code", CodeDuplicateCode)
	default:
		logger.Error("Unhandled error", "error", err)
		InternalError(w, "internal error")
	}
}
