package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/unitrack/internal/api"
	"github.com/JonMunkholm/unitrack/internal/core"
	"github.com/JonMunkholm/unitrack/internal/kv"
)

// AuthBlob is the persisted sign-in state.
type AuthBlob struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResult, error)
}

// AuthSession owns the auth blob. It is the api.TokenSource of the client.
type AuthSession struct {
	kv     kv.Store
	auth   Authenticator
	guard  *Guard
	logger *slog.Logger
}

// NewAuthSession creates an AuthSession. auth may be nil when sign-in happens
// elsewhere and only the stored token is needed.
func NewAuthSession(store kv.Store, auth Authenticator, opts Options) *AuthSession {
	return &AuthSession{
		kv:     store,
		auth:   auth,
		guard:  NewGuard(),
		logger: opts.logger(),
	}
}

// SetAuthenticator wires the client after construction; the client itself
// needs the session as its token source.
func (a *AuthSession) SetAuthenticator(auth Authenticator) {
	a.auth = auth
}

// Token returns the stored bearer token, or "" when signed out.
func (a *AuthSession) Token(ctx context.Context) (string, error) {
	blob, ok, err := restore[AuthBlob](ctx, a.kv, kv.KeyAuth)
	if err != nil || !ok {
		return "", err
	}
	return blob.Token, nil
}

// User returns the signed-in user, or core.ErrNoToken when signed out.
func (a *AuthSession) User(ctx context.Context) (*core.User, error) {
	blob, ok, err := restore[AuthBlob](ctx, a.kv, kv.KeyAuth)
	if err != nil {
		return nil, err
	}
	if !ok || blob.Token == "" {
		return nil, core.ErrNoToken
	}
	return &blob.User, nil
}

// SignIn logs in and stores the result.
func (a *AuthSession) SignIn(ctx context.Context, req api.LoginRequest) (*core.User, error) {
	if a.auth == nil {
		return nil, errors.New("sign in: no authenticator configured")
	}

	var user *core.User
	err := a.guard.Run("sign-in", func() error {
		res, err := a.auth.Login(ctx, req)
		if err != nil {
			return err
		}
		if err := kv.SetJSON(ctx, a.kv, kv.KeyAuth, AuthBlob{User: res.User, Token: res.Token}); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		user = &res.User
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("signed in", "user_id", user.ID)
	return user, nil
}

// SignOut forgets the token and the cached lists tied to the account.
// courseIDs names the courses whose rosters and sessions may be cached.
func (a *AuthSession) SignOut(ctx context.Context, courseIDs ...string) error {
	err := errors.Join(
		a.kv.Delete(ctx, kv.KeyAuth),
		a.ForgetCourses(ctx, courseIDs...),
	)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	a.logger.Info("signed out")
	return nil
}

// ForgetCourses deletes the cached course list and the cached rosters and
// sessions of courseIDs. Every key is attempted even when one fails.
func (a *AuthSession) ForgetCourses(ctx context.Context, courseIDs ...string) error {
	keys := []string{kv.KeyCourses}
	for _, id := range courseIDs {
		keys = append(keys, kv.StudentsKey(id), kv.SessionsKey(id))
	}

	var errs []error
	for _, key := range keys {
		if err := a.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnboardingSeen reports whether the onboarding screens were dismissed.
func (a *AuthSession) OnboardingSeen(ctx context.Context) (bool, error) {
	seen, _, err := restore[bool](ctx, a.kv, kv.KeyOnboardingSeen)
	return seen, err
}

// MarkOnboardingSeen records that onboarding was dismissed.
func (a *AuthSession) MarkOnboardingSeen(ctx context.Context) error {
	return kv.SetJSON(ctx, a.kv, kv.KeyOnboardingSeen, true)
}

// Language returns the stored UI language, or fallback.
func (a *AuthSession) Language(ctx context.Context, fallback string) string {
	lang, ok, err := restore[string](ctx, a.kv, kv.KeyLanguage)
	if err != nil || !ok || lang == "" {
		return fallback
	}
	return lang
}

// SetLanguage stores the UI language.
func (a *AuthSession) SetLanguage(ctx context.Context, lang string) error {
	return kv.SetJSON(ctx, a.kv, kv.KeyLanguage, lang)
}
