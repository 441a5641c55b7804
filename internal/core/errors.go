package core

// errors.go defines the error taxonomy surfaced to callers.
//
//   - ValidationError: detected locally, never reaches the network
//   - NetworkError: transport failure, always retryable by re-invoking the action
//   - HTTPError: non-2xx (or unsuccessful 2xx) response from the backend
//   - AuthError: 401-shaped responses, callers redirect to sign-in
//
// Bulk partial failures are not errors; see SubmitReport.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyImport is returned when an import has no data rows.
	ErrEmptyImport = errors.New("file is empty or invalid")

	// ErrNoValidRecords is returned when every data row was rejected.
	ErrNoValidRecords = errors.New("no valid students found")

	// ErrMissingColumns is returned when the header lacks required columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrFileTooLarge is returned when an import exceeds the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrTooManyRows is returned when an import exceeds the row cap.
	ErrTooManyRows = errors.New("too many rows")

	// ErrConfirmationRequired guards destructive actions that were not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrActionInFlight is returned when the same action is already running.
	ErrActionInFlight = errors.New("action already in progress")

	// ErrNoToken is returned when no bearer token is stored.
	ErrNoToken = errors.New("not signed in")

	// ErrEmailNotVerified matches HTTP errors whose server message reports
	// an unverified account.
	ErrEmailNotVerified = errors.New("email not verified")
)

// ValidationError represents locally detected invalid input.
type ValidationError struct {
	Field   string   // Field/column name
	Value   string   // The invalid value
	Message string   // Human-readable error message
	Missing []string // Absent columns, for header failures
	Err     error    // Optional sentinel for errors.Is
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Missing) > 0 && !strings.Contains(msg, strings.Join(e.Missing, ", ")) {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Missing, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a sentinel in a ValidationError.
func NewValidationError(sentinel error, format string, args ...any) *ValidationError {
	msg := sentinel.Error()
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &ValidationError{Message: msg, Err: sentinel}
}

// NetworkError is a transport-level failure: DNS, refused connection, timeout.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a response the backend reported as failed.
type HTTPError struct {
	Status        int
	Path          string
	ServerMessage string
}

func (e *HTTPError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("http %d: request failed", e.Status)
}

// Is lets errors.Is(err, ErrEmailNotVerified) match the backend's
// unverified-account responses.
func (e *HTTPError) Is(target error) bool {
	if target == ErrEmailNotVerified {
		msg := strings.ToLower(e.ServerMessage)
		return strings.Contains(msg, "not verified") || strings.Contains(msg, "verify your email")
	}
	return false
}

// AuthError is a 401-shaped response. Callers should send the user to sign-in.
type AuthError struct {
	Status        int
	ServerMessage string
}

func (e *AuthError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("unauthorized (%d): %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("unauthorized (%d)", e.Status)
}

// IsRetryable reports whether re-invoking the same action may succeed.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500
	}
	return false
}
