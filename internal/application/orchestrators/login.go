package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/oauth2"

	"clubhouse/internal/adapters/auth"
	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotRegistered      = errors.New("this Google account is not registered with the club")
)

// UserStoreForLogin defines the store interface needed by the login orchestrators.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// LoginResult carries what a session needs to know about the user.
type LoginResult struct {
	Email     string
	Name      string
	Role      string
	AthleteID string
	Token     *oauth2.Token
}

// LoginInput carries input for the local login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
}

// ExecuteLogin checks a password against the users document. Only backends
// that need no per-user token (sqlite, postgres, firestore, memory) offer it.
// PRE: Valid email and password provided
// POST: Returns user info on success
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if errors.Is(err, user.ErrNotFound) {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	if err := u.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", u.Email, "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	slog.Info("auth_event", "event", "login_success", "email", u.Email, "role", u.Role)
	return LoginResult{Email: u.Email, Name: u.Name, Role: u.Role, AthleteID: u.AthleteID}, nil
}

// OAuthProvider is the part of the identity provider the callback needs.
type OAuthProvider interface {
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	Identify(ctx context.Context, tok *oauth2.Token) (auth.Identity, error)
}

// CompleteOAuthLoginInput carries the callback parameters.
type CompleteOAuthLoginInput struct {
	Code     string
	Verifier string
}

// CompleteOAuthLoginDeps holds dependencies for CompleteOAuthLogin.
type CompleteOAuthLoginDeps struct {
	Provider  OAuthProvider
	UserStore UserStoreForLogin
}

// ExecuteCompleteOAuthLogin exchanges the callback code, identifies the user
// and looks them up in the users document, read with the user's own token.
// PRE: Code came back from the provider for a flow started with Verifier
// POST: Returns user info and the token to keep in the session
func ExecuteCompleteOAuthLogin(ctx context.Context, input CompleteOAuthLoginInput, deps CompleteOAuthLoginDeps) (LoginResult, error) {
	if input.Code == "" {
		return LoginResult{}, invalid(errors.New("authorization code is missing"))
	}
	tok, err := deps.Provider.Exchange(ctx, input.Code, input.Verifier)
	if err != nil {
		slog.Info("auth_event", "event", "oauth_failed", "reason", "exchange", "error", err.Error())
		return LoginResult{}, storage.ErrUnauthorized
	}
	id, err := deps.Provider.Identify(ctx, tok)
	if err != nil {
		slog.Info("auth_event", "event", "oauth_failed", "reason", "identify", "error", err.Error())
		return LoginResult{}, storage.ErrUnauthorized
	}

	ctx = storage.WithTokenSource(ctx, oauth2.StaticTokenSource(tok))
	u, err := deps.UserStore.GetByEmail(ctx, id.Email)
	if errors.Is(err, user.ErrNotFound) {
		slog.Info("auth_event", "event", "oauth_rejected", "email", id.Email, "reason", "not_registered")
		return LoginResult{}, ErrNotRegistered
	}
	if err != nil {
		return LoginResult{}, err
	}

	name := u.Name
	if name == "" {
		name = id.Name
	}
	slog.Info("auth_event", "event", "login_success", "email", u.Email, "role", u.Role, "method", "google")
	return LoginResult{Email: u.Email, Name: name, Role: u.Role, AthleteID: u.AthleteID, Token: tok}, nil
}
