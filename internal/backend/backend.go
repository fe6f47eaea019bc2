// Package backend defines the directory contract the session store depends
// on. The in-memory mock, the Postgres directory and the REST client are
// drop-in replacements for one another.
package backend

import (
	"context"

	"github.com/helioshq/helios-admin/internal/identity"
)

// Credentials carries a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// Registration carries a signup request.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Grant is the result of a successful login: the materialized user plus the
// bearer credential pair the client persists.
type Grant struct {
	User         identity.User
	AccessToken  string
	RefreshToken string
}

// Directory is the authentication and profile API. Implementations resolve
// the caller from the opaque access token; callers must not depend on token
// internals beyond passing them back.
type Directory interface {
	Login(ctx context.Context, creds Credentials) (*Grant, error)
	Register(ctx context.Context, reg Registration) (*identity.User, error)
	Logout(ctx context.Context, accessToken string) error
	GetCurrentUser(ctx context.Context, accessToken string) (*identity.User, error)

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error

	UpdateProfile(ctx context.Context, accessToken string, patch identity.ProfilePatch) (*identity.User, error)
	UpdatePreferences(ctx context.Context, accessToken string, patch identity.PreferencesPatch) (*identity.User, error)
	UploadAvatar(ctx context.Context, accessToken, filename string, data []byte) (*identity.User, error)
	DeleteAvatar(ctx context.Context, accessToken string) (*identity.User, error)
}
