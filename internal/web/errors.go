package web

// errors.go maps catalog errors to HTTP responses.
//
// The error flow:
//  1. Handler receives an error from the catalog
//  2. Calls respondError(w, r, err)
//  3. The status code is chosen from the error type
//  4. core.MapError supplies the user-facing message and support code
//  5. The technical error is logged with the request id for correlation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/llocg/internal/core"
	"github.com/JonMunkholm/llocg/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a catalog error.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyBulk):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped JSON error body.
// Client errors keep their own text in "error"; server errors never leak
// storage details.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	detail := userMsg.Message
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   detail,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// badRequest reports a body or parameter problem found before the catalog
// is called.
func badRequest(w http.ResponseWriter, r *http.Request, field, msg string) {
	respondError(w, r, core.NewValidationError(field, msg))
}
