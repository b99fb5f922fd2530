package web

// errors.go renders every failure as {error, message, action, code} JSON.
// The technical error is logged with the request id; the client only sees
// the catalogue message from core.MapError.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("invalid request body")

	errAuditNotFound = fmt.Errorf("audit entry: %w", matrix.ErrNotFound)
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var verr *matrix.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, matrix.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrInvalidCSV),
		errors.Is(err, matrix.ErrInvalidName),
		errors.Is(err, matrix.ErrInvalidKind),
		errors.Is(err, matrix.ErrInvalidColor),
		errors.Is(err, matrix.ErrInvalidFilter),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	}
	var cerr *matrix.CommandError
	if errors.As(err, &cerr) ||
		errors.Is(err, core.ErrNothingToUndo) ||
		errors.Is(err, core.ErrNothingToRedo) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail responds with the status statusFor derives from err.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error and writes the user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	resp := ErrorResponse{
		Error:   err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if status >= http.StatusInternalServerError {
		// Internal details stay in the log.
		resp.Error = msg.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
