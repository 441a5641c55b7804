package core

import (
	"errors"
	"fmt"
	"testing"
)

func headerErr(headers []string) error {
	_, err := ValidateHeaders(headers)
	return err
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantTitle  string
		wantDetail string
	}{
		{
			name: "nil error returns empty",
			err:  nil,
		},
		{
			name:      "empty import",
			err:       NewValidationError(ErrEmptyImport, ""),
			wantCode:  "VAL001",
			wantTitle: "File is empty or invalid",
		},
		{
			name:      "no valid records wrapped",
			err:       fmt.Errorf("preview: %w", NewValidationError(ErrNoValidRecords, "")),
			wantCode:  "VAL002",
			wantTitle: "No valid students found",
		},
		{
			name:      "missing columns",
			err:        &ValidationError{Field: "header", Missing: []string{"email"}, Err: ErrMissingColumns},
			wantCode:   "VAL003",
			wantTitle:  "Required columns are missing",
			wantDetail: "Missing: email",
		},
		{
			name:       "missing columns from header check",
			err:        headerErr([]string{"name"}),
			wantCode:   "VAL003",
			wantTitle:  "Required columns are missing",
			wantDetail: "Missing: matric_no, email",
		},
		{
			name:      "file too large",
			err:       NewValidationError(ErrFileTooLarge, "file too large: exceeds %d bytes", 10),
			wantCode:  "VAL004",
			wantTitle: "File is too large",
		},
		{
			name:       "plain validation error keeps detail",
			err:        &ValidationError{Field: "email", Message: "is required"},
			wantCode:   "VAL006",
			wantTitle:  "Some input is invalid",
			wantDetail: "email: is required",
		},
		{
			name:      "network error",
			err:       &NetworkError{Method: "GET", URL: "http://x/courses", Err: errors.New("dial tcp: refused")},
			wantCode:  "NET001",
			wantTitle: "Unable to reach the server",
		},
		{
			name:      "auth error",
			err:       &AuthError{Status: 401},
			wantCode:  "AUTH001",
			wantTitle: "Your session has ended",
		},
		{
			name:      "unverified email via http error",
			err:       &HTTPError{Status: 403, ServerMessage: "Email not verified"},
			wantCode:  "AUTH002",
			wantTitle: "Email not verified",
		},
		{
			name:       "http error shows server message verbatim",
			err:        &HTTPError{Status: 409, ServerMessage: "Course code already exists"},
			wantCode:   "HTTP001",
			wantTitle:  "Request failed",
			wantDetail: "Course code already exists",
		},
		{
			name:       "http error without message",
			err:        &HTTPError{Status: 500},
			wantCode:   "HTTP001",
			wantTitle:  "Request failed",
			wantDetail: "request failed",
		},
		{
			name:      "confirmation required",
			err:       ErrConfirmationRequired,
			wantCode:  "ACT001",
			wantTitle: "Confirmation required",
		},
		{
			name:      "action in flight",
			err:       fmt.Errorf("delete course: %w", ErrActionInFlight),
			wantCode:  "ACT002",
			wantTitle: "Already in progress",
		},
		{
			name:      "untyped pattern match is case insensitive",
			err:       errors.New("upstream said: FILE TOO LARGE"),
			wantCode:  "VAL004",
			wantTitle: "File is too large",
		},
		{
			name:      "unknown error returns default",
			err:       errors.New("some random internal error"),
			wantCode:  "ERR000",
			wantTitle: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("MapError() title = %q, want %q", got.Title, tt.wantTitle)
			}
			if tt.wantDetail != "" && got.Detail != tt.wantDetail {
				t.Errorf("MapError() detail = %q, want %q", got.Detail, tt.wantDetail)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrConfirmationRequired)

	expected := "Confirmation required (Code: ACT001). Confirm the action to continue"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: &AuthError{Status: 401}, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &NetworkError{Method: "POST", URL: "http://x", Err: errors.New("eof")}
		userErr := NewUserError(techErr)

		if userErr.Error() != "Unable to reach the server" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", &NetworkError{Err: errors.New("reset")}, true},
		{"server error", &HTTPError{Status: 502}, true},
		{"client error", &HTTPError{Status: 422}, false},
		{"auth", &AuthError{Status: 401}, false},
		{"validation", NewValidationError(ErrEmptyImport, ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
