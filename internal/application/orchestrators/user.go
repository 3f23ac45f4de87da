package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"clubhouse/internal/domain/user"
)

// UserStore defines the user operations used by the orchestrators.
type UserStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Save(ctx context.Context, u user.User) error
	Delete(ctx context.Context, email string) error
}

// SaveUserInput carries input for the user editor. An empty Password keeps
// the stored hash.
type SaveUserInput struct {
	Email     string
	Name      string
	Role      string
	AthleteID string
	Password  string
}

// SaveUserDeps holds dependencies for SaveUser.
type SaveUserDeps struct {
	UserStore    UserStore
	AthleteStore AthleteLookup
}

// ExecuteSaveUser creates or updates a user.
// PRE: Valid email and role; AthleteID, when set, refers to an existing athlete
// POST: User stored with a lower-cased email
// INVARIANT: At least one admin remains
func ExecuteSaveUser(ctx context.Context, input SaveUserInput, deps SaveUserDeps) (user.User, error) {
	u := user.User{
		Email:     user.NormalizeEmail(input.Email),
		Name:      strings.TrimSpace(input.Name),
		Role:      input.Role,
		AthleteID: strings.TrimSpace(input.AthleteID),
	}
	if err := u.Validate(); err != nil {
		return user.User{}, invalid(err)
	}
	if u.AthleteID != "" {
		if _, err := deps.AthleteStore.GetByID(ctx, u.AthleteID); err != nil {
			return user.User{}, invalid(err)
		}
	}
	if input.Password != "" {
		if err := u.SetPassword(input.Password); err != nil {
			return user.User{}, invalid(err)
		}
	}

	if err := deps.UserStore.Save(ctx, u); err != nil {
		if errors.Is(err, user.ErrLastAdmin) {
			return user.User{}, invalid(err)
		}
		return user.User{}, err
	}
	slog.Info("auth_event", "event", "user_saved", "email", u.Email, "role", u.Role)
	u.PasswordHash = ""
	return u, nil
}

// DeleteUserInput identifies the user to delete.
type DeleteUserInput struct {
	Email string
	// ActorEmail is the signed-in admin; admins cannot delete themselves.
	ActorEmail string
}

// DeleteUserDeps holds dependencies for DeleteUser.
type DeleteUserDeps struct {
	UserStore UserStore
}

// ExecuteDeleteUser removes a user.
// POST: Returns user.ErrLastAdmin when removing the only admin
func ExecuteDeleteUser(ctx context.Context, input DeleteUserInput, deps DeleteUserDeps) error {
	email := user.NormalizeEmail(input.Email)
	if email == "" {
		return invalid(user.ErrEmptyEmail)
	}
	if email == user.NormalizeEmail(input.ActorEmail) {
		return invalid(errors.New("you cannot delete your own user"))
	}
	if err := deps.UserStore.Delete(ctx, email); err != nil {
		if errors.Is(err, user.ErrLastAdmin) {
			return invalid(err)
		}
		return err
	}
	slog.Info("auth_event", "event", "user_deleted", "email", email)
	return nil
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	UserStore UserStore
}

// ExecuteSeedAdmin creates an admin when the users document has none, so a
// fresh self-hosted install can be signed into.
// POST: Returns true when an admin was created
func ExecuteSeedAdmin(ctx context.Context, email, password string, deps SeedAdminDeps) (bool, error) {
	users, err := deps.UserStore.List(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.IsAdmin() {
			return false, nil
		}
	}
	if _, err := ExecuteSaveUser(ctx, SaveUserInput{Email: email, Role: user.RoleAdmin, Password: password}, SaveUserDeps{UserStore: deps.UserStore}); err != nil {
		return false, err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", user.NormalizeEmail(email))
	return true, nil
}
