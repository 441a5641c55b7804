package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/unitrack/internal/core"
)

// RegisterRequest creates a lecturer account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=lecturer admin"`
}

// LoginRequest signs in with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest confirms an account with the emailed code.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

// EmailRequest carries only an address; used to resend codes and start a
// password reset.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password with the emailed code.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,numeric,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// AuthResult is the signed-in user and their bearer token.
type AuthResult struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Register creates an account. The backend emails a verification code.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*core.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "auth/register", CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: AuthFamily,
	})
	if err != nil {
		return nil, err
	}

	var user core.User
	if err := resp.DecodeFirst(&user, "user", "data"); err != nil {
		// Some deployments answer with a message only.
		return &core.User{Name: req.Name, Email: req.Email}, nil
	}
	return &user, nil
}

// Login exchanges credentials for a token. An unverified account fails with
// an error matching core.ErrEmailNotVerified.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "auth/login", CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: AuthFamily,
	})
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := resp.Decode("token", &result.Token); err == nil {
		_ = resp.Decode("user", &result.User)
	} else if err := resp.Decode("data", &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if result.Token == "" {
		return nil, fmt.Errorf("login: %w", core.ErrNoToken)
	}
	return &result, nil
}

// VerifyEmail confirms the account with the emailed code.
func (c *Client) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	req.Email = normalizeEmail(req.Email)
	return c.postNoContent(ctx, "auth/verify-email", req, AuthFamily)
}

// ResendCode asks for a new verification code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	return c.postNoContent(ctx, "auth/resend-code", EmailRequest{Email: normalizeEmail(email)}, Generic)
}

// ForgotPassword starts a password reset.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.postNoContent(ctx, "auth/forgot-password", EmailRequest{Email: normalizeEmail(email)}, Generic)
}

// ResetPassword completes a password reset.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	return c.postNoContent(ctx, "auth/reset-password", req, Generic)
}

func (c *Client) postNoContent(ctx context.Context, path string, req any, family Family) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	_, err := c.Call(ctx, path, CallOptions{
		Method:   http.MethodPost,
		Body:     req,
		Resource: family,
	})
	return err
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
