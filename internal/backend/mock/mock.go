// Package mock implements the directory contract against an in-memory
// dataset, standing in for the real Helios API during development and tests.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helioshq/helios-admin/internal/authz"
	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/identity"
)

const (
	// MinPasswordLen is the only password rule the mock enforces. Password
	// content is deliberately not verified.
	MinPasswordLen = 3
	// MinResetTokenLen is the plausibility check applied to reset tokens.
	MinResetTokenLen = 10
)

// Notifier delivers out-of-band messages triggered by directory operations.
type Notifier interface {
	PasswordReset(ctx context.Context, email, resetToken string) error
}

// Directory is the in-memory implementation of backend.Directory.
type Directory struct {
	store    *Store
	notifier Notifier
	logger   *slog.Logger
}

var _ backend.Directory = (*Directory)(nil)

// Option customizes a Directory.
type Option func(*Directory)

// WithNotifier wires delivery of password-reset messages.
func WithNotifier(n Notifier) Option {
	return func(d *Directory) { d.notifier = n }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// New constructs a Directory over the given store.
func New(store *Store, opts ...Option) *Directory {
	d := &Directory{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Login validates credentials and issues a token pair. Only two failures
// exist here: unknown email and a too-short password.
func (d *Directory) Login(ctx context.Context, creds backend.Credentials) (*backend.Grant, error) {
	if len(creds.Password) < MinPasswordLen {
		return nil, backend.ErrPasswordTooShort
	}
	if _, ok := d.store.find(creds.Email); !ok {
		return nil, backend.ErrUserNotFound
	}
	user, _ := d.store.update(creds.Email, func(u *identity.User) {
		u.LastLoginAt = time.Now().UTC()
	})
	return &backend.Grant{
		User:         *user,
		AccessToken:  mintAccessToken(creds.Email),
		RefreshToken: mintRefreshToken(creds.Email),
	}, nil
}

// Register creates a viewer-role account. It never logs the user in.
func (d *Directory) Register(ctx context.Context, reg backend.Registration) (*identity.User, error) {
	email := normalizeEmail(reg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &backend.OpError{Message: "A valid email is required"}
	}
	if len(reg.Password) < MinPasswordLen {
		return nil, backend.ErrPasswordTooShort
	}
	role, _ := authz.RoleByName(authz.RoleViewer)
	now := time.Now().UTC()
	user := &identity.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Profile:   identity.Profile{Preferences: identity.DefaultPreferences()},
	}
	user.DisplayName = user.FullName()
	user.MaterializeRole(role)
	if !d.store.insert(user) {
		return nil, backend.ErrEmailTaken
	}
	return user.Clone(), nil
}

// Logout accepts any well-formed token. The mock keeps no session table, so
// there is nothing to invalidate.
func (d *Directory) Logout(ctx context.Context, accessToken string) error {
	if _, ok := emailFromToken(accessToken); !ok {
		return backend.ErrInvalidToken
	}
	return nil
}

// GetCurrentUser resolves the token back to its account.
func (d *Directory) GetCurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	email, ok := emailFromToken(accessToken)
	if !ok {
		return nil, backend.ErrInvalidToken
	}
	user, ok := d.store.find(email)
	if !ok {
		return nil, backend.ErrInvalidToken
	}
	return user, nil
}

// ForgotPassword issues a reset token for known accounts. Unknown emails
// succeed silently so the endpoint cannot be used to probe for accounts.
func (d *Directory) ForgotPassword(ctx context.Context, email string) error {
	if normalizeEmail(email) == "" {
		return &backend.OpError{Message: "A valid email is required"}
	}
	if _, ok := d.store.find(email); !ok {
		return nil
	}
	resetToken := uuid.NewString()
	if d.notifier == nil {
		return nil
	}
	if err := d.notifier.PasswordReset(ctx, normalizeEmail(email), resetToken); err != nil {
		d.logger.Warn("password reset notify", slog.Any("error", err))
	}
	return nil
}

// ResetPassword applies the plausible-length rule to the reset token. The
// mock does not verify password content on login, so nothing else changes.
func (d *Directory) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(resetToken) < MinResetTokenLen {
		return backend.ErrInvalidToken
	}
	if len(newPassword) < MinPasswordLen {
		return backend.ErrPasswordTooShort
	}
	return nil
}

// ChangePassword requires a valid session and a current password passing the
// trivial length check. The stored user record is not altered.
func (d *Directory) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	if _, err := d.GetCurrentUser(ctx, accessToken); err != nil {
		return err
	}
	if len(currentPassword) < MinPasswordLen {
		return backend.ErrInvalidCredentials
	}
	if len(newPassword) < MinPasswordLen {
		return backend.ErrPasswordTooShort
	}
	return nil
}

// UpdateProfile merges the patch into the caller's record.
func (d *Directory) UpdateProfile(ctx context.Context, accessToken string, patch identity.ProfilePatch) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.ApplyProfile(patch)
	})
}

// UpdatePreferences merges the patch into the caller's preferences.
func (d *Directory) UpdatePreferences(ctx context.Context, accessToken string, patch identity.PreferencesPatch) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.ApplyPreferences(patch)
	})
}

// UploadAvatar stores a synthetic avatar URL for the caller.
func (d *Directory) UploadAvatar(ctx context.Context, accessToken, filename string, data []byte) (*identity.User, error) {
	if len(data) == 0 {
		return nil, backend.ErrEmptyAvatar
	}
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "avatar"
	}
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.AvatarURL = fmt.Sprintf("/avatars/%s/%s", u.ID, name)
	})
}

// DeleteAvatar clears the caller's avatar reference.
func (d *Directory) DeleteAvatar(ctx context.Context, accessToken string) (*identity.User, error) {
	return d.mutateCurrent(ctx, accessToken, func(u *identity.User) {
		u.AvatarURL = ""
	})
}

func (d *Directory) mutateCurrent(ctx context.Context, accessToken string, mutate func(*identity.User)) (*identity.User, error) {
	current, err := d.GetCurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	next, ok := d.store.update(current.Email, mutate)
	if !ok {
		return nil, backend.ErrInvalidToken
	}
	return next, nil
}
