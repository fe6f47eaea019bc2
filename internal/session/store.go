// Package session owns the authenticated principal and the persisted
// credential lifecycle. It is the only component that mutates either.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/helioshq/helios-admin/internal/authz"
	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/identity"
)

const genericFailure = "Something went wrong. Please try again."

// Result is what every session operation reports to the UI: a success flag
// plus user-displayable feedback. Operations never propagate raw errors.
type Result struct {
	OK      bool
	Message string
}

func succeeded(msg string) Result { return Result{OK: true, Message: msg} }
func failed(msg string) Result    { return Result{OK: false, Message: msg} }

// Store is the single source of truth for "who is logged in". The stored
// user is an immutable snapshot replaced wholesale on every mutation.
//
// Concurrent mutating operations are not queued or excluded; the last write
// wins on both the credential pair and the stored principal. Callers are
// expected to disable triggering controls while an operation is in flight.
type Store struct {
	dir    backend.Directory
	creds  CredentialStore
	logger *slog.Logger

	mu   sync.RWMutex
	user *identity.User

	checking    atomic.Bool
	onSignedOut func()
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSignedOutHook registers the navigation side effect fired after logout
// clears the session.
func WithSignedOutHook(fn func()) Option {
	return func(s *Store) { s.onSignedOut = fn }
}

// New constructs a Store over a directory and a credential store.
func New(dir backend.Directory, creds CredentialStore, opts ...Option) *Store {
	s := &Store{dir: dir, creds: creds, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentUser returns the stored principal snapshot, or nil when anonymous.
func (s *Store) CurrentUser() *identity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Principal adapts the store to authz.PrincipalSource.
func (s *Store) Principal() authz.Principal {
	u := s.CurrentUser()
	if u == nil {
		return nil
	}
	return u
}

// Authenticated reports whether a principal is stored.
func (s *Store) Authenticated() bool { return s.CurrentUser() != nil }

// Checking reports whether a session restore is in flight.
func (s *Store) Checking() bool { return s.checking.Load() }

// Login authenticates and establishes the session. The credential pair is
// persisted before the user is stored, so any reader observing a non-nil
// principal may assume tokens are already durable.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return failed("Email and password are required")
	}
	grant, err := s.dir.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		return s.failure("login", err)
	}
	if err := s.creds.Save(ctx, Credentials{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
	}); err != nil {
		s.logger.Error("persist credentials", slog.Any("error", err))
		return failed(genericFailure)
	}
	s.setUser(&grant.User)
	return succeeded("Welcome back, " + grant.User.DisplayName)
}

// Logout tears the session down unconditionally. Server-side invalidation is
// best effort; its failure is logged and never blocks the local clear.
// Calling Logout while anonymous is a no-op that stays anonymous.
func (s *Store) Logout(ctx context.Context) {
	creds, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.Warn("load credentials for logout", slog.Any("error", err))
	}
	if !creds.Empty() {
		if err := s.dir.Logout(ctx, creds.AccessToken); err != nil {
			s.logger.Warn("server-side logout", slog.Any("error", err))
		}
	}
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Warn("clear credentials", slog.Any("error", err))
	}
	s.setUser(nil)
	if s.onSignedOut != nil {
		s.onSignedOut()
	}
}

// Register creates an account. It never logs the new user in.
func (s *Store) Register(ctx context.Context, reg backend.Registration) Result {
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		return failed("Email and password are required")
	}
	if _, err := s.dir.Register(ctx, reg); err != nil {
		return s.failure("register", err)
	}
	return succeeded("Account created. You can sign in now.")
}

// ForgotPassword requests a reset message for the given email.
func (s *Store) ForgotPassword(ctx context.Context, email string) Result {
	if strings.TrimSpace(email) == "" {
		return failed("Email is required")
	}
	if err := s.dir.ForgotPassword(ctx, email); err != nil {
		return s.failure("forgot password", err)
	}
	return succeeded("If the email exists, a reset link is on its way")
}

// ResetPassword redeems a reset token.
func (s *Store) ResetPassword(ctx context.Context, resetToken, newPassword string) Result {
	if err := s.dir.ResetPassword(ctx, resetToken, newPassword); err != nil {
		return s.failure("reset password", err)
	}
	return succeeded("Password updated. Sign in with your new password.")
}

// ChangePassword rotates the password of the authenticated user. The stored
// principal is unchanged: passwords never live in local state.
func (s *Store) ChangePassword(ctx context.Context, currentPassword, newPassword string) Result {
	token, res := s.requireToken(ctx)
	if !res.OK {
		return res
	}
	if err := s.dir.ChangePassword(ctx, token, currentPassword, newPassword); err != nil {
		return s.failure("change password", err)
	}
	return succeeded("Password changed")
}

// UpdateProfile merges a profile patch into the current principal.
func (s *Store) UpdateProfile(ctx context.Context, patch identity.ProfilePatch) Result {
	return s.mutate(ctx, "update profile", "Profile updated", func(ctx context.Context, token string) (*identity.User, error) {
		return s.dir.UpdateProfile(ctx, token, patch)
	})
}

// UpdatePreferences merges a preferences patch into the current principal.
func (s *Store) UpdatePreferences(ctx context.Context, patch identity.PreferencesPatch) Result {
	return s.mutate(ctx, "update preferences", "Preferences saved", func(ctx context.Context, token string) (*identity.User, error) {
		return s.dir.UpdatePreferences(ctx, token, patch)
	})
}

// UploadAvatar stores a new avatar and patches the principal snapshot.
func (s *Store) UploadAvatar(ctx context.Context, filename string, data []byte) Result {
	return s.mutate(ctx, "upload avatar", "Avatar updated", func(ctx context.Context, token string) (*identity.User, error) {
		return s.dir.UploadAvatar(ctx, token, filename, data)
	})
}

// DeleteAvatar clears the avatar reference on the principal.
func (s *Store) DeleteAvatar(ctx context.Context) Result {
	return s.mutate(ctx, "delete avatar", "Avatar removed", func(ctx context.Context, token string) (*identity.User, error) {
		return s.dir.DeleteAvatar(ctx, token)
	})
}

// RefreshUser re-derives the principal from the persisted token. Every
// failure path lands on the anonymous state without surfacing an error:
// "not logged in" is an expected outcome of app start, not a fault.
func (s *Store) RefreshUser(ctx context.Context) {
	s.checking.Store(true)
	defer s.checking.Store(false)

	creds, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.Warn("load credentials", slog.Any("error", err))
		s.setUser(nil)
		return
	}
	if creds.Empty() {
		s.setUser(nil)
		return
	}
	user, err := s.dir.GetCurrentUser(ctx, creds.AccessToken)
	if err != nil {
		if err := s.creds.Clear(ctx); err != nil {
			s.logger.Warn("clear credentials", slog.Any("error", err))
		}
		s.setUser(nil)
		return
	}
	s.setUser(user)
}

func (s *Store) mutate(ctx context.Context, op, successMsg string, call func(context.Context, string) (*identity.User, error)) Result {
	token, res := s.requireToken(ctx)
	if !res.OK {
		return res
	}
	user, err := call(ctx, token)
	if err != nil {
		return s.failure(op, err)
	}
	s.setUser(user)
	return succeeded(successMsg)
}

// requireToken resolves the persisted access token for mutating operations
// that need an authenticated session.
func (s *Store) requireToken(ctx context.Context) (string, Result) {
	if !s.Authenticated() {
		return "", failed(backend.ErrNotAuthenticated.Error())
	}
	creds, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.Error("load credentials", slog.Any("error", err))
		return "", failed(genericFailure)
	}
	if creds.Empty() {
		return "", failed(backend.ErrNotAuthenticated.Error())
	}
	return creds.AccessToken, Result{OK: true}
}

// failure folds backend and transport errors into the uniform result shape.
// Unexpected errors are logged and replaced with a generic message.
func (s *Store) failure(op string, err error) Result {
	if msg, ok := backend.Displayable(err); ok {
		return failed(msg)
	}
	s.logger.Error(op, slog.Any("error", err))
	return failed(genericFailure)
}

func (s *Store) setUser(u *identity.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
