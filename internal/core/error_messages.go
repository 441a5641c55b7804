// Error Codes Reference
//
// User-facing messages carry a code the lecturer can quote to support.
// Codes are grouped by category:
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Empty import: the file has no data rows
//	VAL002 - No valid students: every data row was rejected
//	VAL003 - Missing columns: header lacks matric_no, name or email
//	VAL004 - File too large: the file exceeds the size cap
//	VAL005 - Too many rows: the file exceeds the row cap
//	VAL006 - Invalid input: any other locally rejected field
//
// # Network Errors (NET001)
//
//	NET001 - Unreachable: the server could not be reached
//
// # Auth Errors (AUTH001-AUTH002)
//
//	AUTH001 - Signed out: the token is missing or rejected
//	AUTH002 - Unverified: the account email is not verified yet
//
// # HTTP Errors (HTTP001)
//
//	HTTP001 - Request failed: the server refused the request; its message
//	          is shown verbatim when present
//
// # Action Errors (ACT001-ACT002)
//
//	ACT001 - Confirmation required: a destructive action was not confirmed
//	ACT002 - In progress: the same action is already running
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: anything else; check the logs for the cause
//
// Typed errors are resolved first with errors.As/errors.Is. Untyped errors
// fall back to case-insensitive pattern matching; the first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information.
type UserMessage struct {
	Title  string `json:"message"` // What happened
	Detail string `json:"action"`  // What to do about it, or the server's own words
	Code   string `json:"code"`    // Support reference
}

var (
	msgEmptyImport = UserMessage{
		Title:  "File is empty or invalid",
		Detail: "Upload a file with a header row and at least one student",
		Code:   "VAL001",
	}
	msgNoValidRecords = UserMessage{
		Title:  "No valid students found",
		Detail: "Every row is missing a matric number, name or email",
		Code:   "VAL002",
	}
	msgMissingColumns = UserMessage{
		Title:  "Required columns are missing",
		Detail: "The header must contain matric_no, name and email",
		Code:   "VAL003",
	}
	msgFileTooLarge = UserMessage{
		Title:  "File is too large",
		Detail: "Split the roster into smaller files",
		Code:   "VAL004",
	}
	msgTooManyRows = UserMessage{
		Title:  "File has too many rows",
		Detail: "Split the roster into smaller files",
		Code:   "VAL005",
	}
	msgInvalidInput = UserMessage{
		Title:  "Some input is invalid",
		Detail: "Check the highlighted fields and try again",
		Code:   "VAL006",
	}
	msgNetwork = UserMessage{
		Title:  "Unable to reach the server",
		Detail: "Check your connection and try again",
		Code:   "NET001",
	}
	msgSignedOut = UserMessage{
		Title:  "Your session has ended",
		Detail: "Please sign in again",
		Code:   "AUTH001",
	}
	msgUnverified = UserMessage{
		Title:  "Email not verified",
		Detail: "Enter the code sent to your email to verify your account",
		Code:   "AUTH002",
	}
	msgConfirm = UserMessage{
		Title:  "Confirmation required",
		Detail: "Confirm the action to continue",
		Code:   "ACT001",
	}
	msgInFlight = UserMessage{
		Title:  "Already in progress",
		Detail: "Wait for the current action to finish",
		Code:   "ACT002",
	}
)

// errorPattern maps a lower-case substring to a user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that lost their type on the way, such as
// messages relayed through logs or other processes.
var errorPatterns = []errorPattern{
	{pattern: "file is empty or invalid", msg: msgEmptyImport},
	{pattern: "no valid students", msg: msgNoValidRecords},
	{pattern: "missing required column", msg: msgMissingColumns},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "too many rows", msg: msgTooManyRows},
	{pattern: "not verified", msg: msgUnverified},
	{pattern: "unauthorized", msg: msgSignedOut},
	{pattern: "connection refused", msg: msgNetwork},
	{pattern: "no such host", msg: msgNetwork},
	{pattern: "context deadline exceeded", msg: msgNetwork},
	{pattern: "confirmation required", msg: msgConfirm},
	{pattern: "already in progress", msg: msgInFlight},
}

var defaultMessage = UserMessage{
	Title:  "An unexpected error occurred",
	Detail: "Please try again or contact support",
	Code:   "ERR000",
}

// MapError converts an error into a message fit for a lecturer.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrEmptyImport):
		return msgEmptyImport
	case errors.Is(err, ErrNoValidRecords):
		return msgNoValidRecords
	case errors.Is(err, ErrMissingColumns):
		m := msgMissingColumns
		var valErr *ValidationError
		if errors.As(err, &valErr) && len(valErr.Missing) > 0 {
			m.Detail = "Missing: " + strings.Join(valErr.Missing, ", ")
		}
		return m
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, ErrTooManyRows):
		return msgTooManyRows
	case errors.Is(err, ErrConfirmationRequired):
		return msgConfirm
	case errors.Is(err, ErrActionInFlight):
		return msgInFlight
	case errors.Is(err, ErrNoToken):
		return msgSignedOut
	case errors.Is(err, ErrEmailNotVerified):
		return msgUnverified
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		m := msgInvalidInput
		m.Detail = valErr.Error()
		return m
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return msgSignedOut
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return msgNetwork
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		detail := httpErr.ServerMessage
		if detail == "" {
			detail = "request failed"
		}
		return UserMessage{Title: "Request failed", Detail: detail, Code: "HTTP001"}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a display string: "Title (Code: XXX). Detail".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Title == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Title, msg.Code, msg.Detail)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Title
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
