// Package session tracks the logged-in user and gates store operations
// that act on behalf of that user.
package session

import (
	"context"
	"strings"

	"kidflix/internal/models"
	"kidflix/internal/store"
	"kidflix/internal/validation"
)

// Gate wraps the entity store with login state and per-actor policy.
type Gate struct {
	store *store.Store
}

// SignupInput is the signup form payload. Challenge is optional; when
// set, Answer must solve it.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	Challenge *validation.Challenge
	Answer    string
}

// PasswordChange is the settings form payload for a new password.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func New(st *store.Store) *Gate {
	return &Gate{store: st}
}

// Store exposes the wrapped store for read access.
func (g *Gate) Store() *store.Store {
	return g.store
}

// CurrentUser returns the logged-in user, or nil when nobody is.
func (g *Gate) CurrentUser() *models.User {
	u, ok := g.store.State().CurrentUser()
	if !ok {
		return nil
	}
	c := u.Clone()
	return &c
}

// Signup creates an account and logs it in.
func (g *Gate) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := validation.ValidateRequired("username", username); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired("email", email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Challenge != nil && !in.Challenge.Verify(in.Answer) {
		return nil, models.NewValidationError("incorrect answer to the signup question")
	}

	u, err := g.store.CreateUser(ctx, username, email, HashPassword(in.Password))
	if err != nil {
		return nil, err
	}
	if err := g.store.SetCurrentUser(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates by email or username and records the session.
func (g *Gate) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if err := validation.ValidateRequired("email or username", identifier); err != nil {
		return nil, err
	}
	u, err := g.store.Authenticate(identifier, HashPassword(password))
	if err != nil {
		return nil, err
	}
	if err := g.store.SetCurrentUser(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout clears the session.
func (g *Gate) Logout(ctx context.Context) error {
	return g.store.SetCurrentUser(ctx, "")
}

// ChangePassword replaces the current user's password after checking
// the old one.
func (g *Gate) ChangePassword(ctx context.Context, in PasswordChange) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	if HashPassword(in.Current) != u.PasswordHash {
		return models.NewWrongPasswordError()
	}
	if err := validation.ValidatePasswordChange(in.New, in.Confirm); err != nil {
		return err
	}
	ok, err := g.store.UpdatePassword(ctx, u.ID, HashPassword(in.New))
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", u.ID)
	}
	return nil
}

// UpdateProfile changes the current user's username and email.
func (g *Gate) UpdateProfile(ctx context.Context, username, email string) (*models.User, error) {
	u, err := g.requireUser()
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validation.ValidateRequired("username", username); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequired("email", email); err != nil {
		return nil, err
	}

	ok, err := g.store.UpdateProfile(ctx, u.ID, store.ProfileUpdate{Username: username, Email: email})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewDuplicateUsernameError(username)
	}
	return g.CurrentUser(), nil
}

// UpdateAvatar sets the current user's avatar reference.
func (g *Gate) UpdateAvatar(ctx context.Context, avatar string) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	if err := validation.ValidateRequired("avatar", avatar); err != nil {
		return err
	}
	return g.store.UpdateAvatar(ctx, u.ID, avatar)
}

func (g *Gate) requireUser() (*models.User, error) {
	u, ok := g.store.State().CurrentUser()
	if !ok {
		return nil, models.NewUnauthorizedError("login required")
	}
	return u, nil
}

func (g *Gate) requireAdmin() (*models.User, error) {
	u, err := g.requireUser()
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, models.NewForbiddenError("admin role required")
	}
	return u, nil
}
