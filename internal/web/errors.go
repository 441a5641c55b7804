package web

// errors.go renders every handler error the same way:
//
//  1. The error is mapped to a UserMessage (web-local errors first, then
//     core.MapError)
//  2. The technical error is logged with the request id
//  3. The client receives {error, message, action, code} with a status
//     derived from the error's type

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/logging"
)

// ErrorResponse is the JSON body of every error reply. Message, Action and
// Code are meant for the lecturer; Error is the underlying reason.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	msgImportNotFound = core.UserMessage{
		Title:  "Import not found",
		Detail: "The preview expired or was discarded. Upload the file again",
		Code:   "IMP001",
	}
	msgTooManyImports = core.UserMessage{
		Title:  "Server is busy",
		Detail: "Too many imports are running. Try again in a moment",
		Code:   "IMP002",
	}
)

func userMessage(err error) core.UserMessage {
	switch {
	case errors.Is(err, errImportNotFound):
		return msgImportNotFound
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports
	}
	return core.MapError(err)
}

// statusFor picks the HTTP status for err. Backend 4xx replies pass through;
// backend 5xx and transport failures become 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, core.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest
	}
	var authErr *core.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	var httpErr *core.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= 400 && httpErr.Status < 500 {
			return httpErr.Status
		}
		return http.StatusBadGateway
	}
	var netErr *core.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped JSON error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	// Error carries the technical reason for client errors; server-side
	// failures only expose the status text.
	reason := err.Error()
	if status >= http.StatusInternalServerError {
		reason = http.StatusText(status)
	}
	writeJSON(w, r, status, ErrorResponse{
		Error:   reason,
		Message: msg.Title,
		Action:  msg.Detail,
		Code:    msg.Code,
	})
}
