package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/spotmap/spot-api/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   apperrors.ErrorCode `json:"code"`
	Reason string              `json:"reason,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code.
// Infrastructure failures are always logged before the response goes out.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred", err)
	}

	if appErr.IsInfrastructure() {
		log.Error().Err(appErr.Unwrap()).Str("code", string(appErr.Code)).Msg(appErr.Message)
	}

	WriteJSON(w, StatusFromCode(appErr.Code), ErrorResponse{
		Error:  appErr.Message,
		Code:   appErr.Code,
		Reason: appErr.Reason(),
	})
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 422 Unprocessable Entity: caller-correctable, including provider refusals
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeForgerySuspected,
		apperrors.ErrCodeProviderRefused,
		apperrors.ErrCodeUnsupportedProvider:
		return http.StatusUnprocessableEntity

	// 404 Not Found
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 500 Internal Server Error
	case apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase,
		apperrors.ErrCodeExternal:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
