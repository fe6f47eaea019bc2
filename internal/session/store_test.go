package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/backend/mock"
	"github.com/helioshq/helios-admin/internal/identity"
	_ "github.com/helioshq/helios-admin/testing"
)

func newStore(t *testing.T, opts ...Option) (*Store, *MemoryCredentials) {
	t.Helper()
	creds := NewMemoryCredentials()
	store := New(mock.New(mock.NewStore()), creds, opts...)
	return store, creds
}

func login(t *testing.T, s *Store, email string) {
	t.Helper()
	res := s.Login(context.Background(), email, "123456")
	require.True(t, res.OK, "login failed: %s", res.Message)
}

func TestLoginEstablishesSession(t *testing.T) {
	s, creds := newStore(t)
	ctx := context.Background()

	res := s.Login(ctx, "admin@example.com", "123456")
	require.True(t, res.OK)
	assert.Equal(t, "Welcome back, Ada Sterling", res.Message)

	require.True(t, s.Authenticated())
	assert.Equal(t, "admin@example.com", s.CurrentUser().Email)

	stored, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.False(t, stored.Empty())
	assert.NotEmpty(t, stored.RefreshToken)
}

func TestLoginFailureLeavesAnonymous(t *testing.T) {
	s, creds := newStore(t)
	ctx := context.Background()

	res := s.Login(ctx, "nobody@example.com", "123456")
	require.False(t, res.OK)
	assert.Equal(t, "User not found", res.Message)

	assert.False(t, s.Authenticated())
	stored, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Empty())
}

func TestLoginShortPasswordMessage(t *testing.T) {
	s, _ := newStore(t)

	res := s.Login(context.Background(), "admin@example.com", "ab")
	require.False(t, res.OK)
	assert.Equal(t, "Password must be at least 3 characters", res.Message)
}

func TestLoginValidatesInput(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.False(t, s.Login(ctx, "", "123456").OK)
	assert.False(t, s.Login(ctx, "   ", "123456").OK)
	assert.False(t, s.Login(ctx, "admin@example.com", "").OK)
}

// orderedCreds asserts tokens are durable before the principal is visible.
type orderedCreds struct {
	MemoryCredentials
	store    *Store
	t        *testing.T
	observed bool
}

func (o *orderedCreds) Save(ctx context.Context, creds Credentials) error {
	o.observed = true
	if o.store.Authenticated() {
		o.t.Error("principal stored before credentials were persisted")
	}
	return o.MemoryCredentials.Save(ctx, creds)
}

func TestLoginPersistsTokensBeforeUser(t *testing.T) {
	creds := &orderedCreds{t: t}
	s := New(mock.New(mock.NewStore()), creds)
	creds.store = s

	res := s.Login(context.Background(), "admin@example.com", "123456")
	require.True(t, res.OK)
	assert.True(t, creds.observed, "credential save should have run")
}

// failingCreds injects persistence errors.
type failingCreds struct {
	MemoryCredentials
	saveErr error
	loadErr error
}

func (f *failingCreds) Save(ctx context.Context, creds Credentials) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryCredentials.Save(ctx, creds)
}

func (f *failingCreds) Load(ctx context.Context) (Credentials, error) {
	if f.loadErr != nil {
		return Credentials{}, f.loadErr
	}
	return f.MemoryCredentials.Load(ctx)
}

func TestLoginCredentialSaveFailure(t *testing.T) {
	creds := &failingCreds{saveErr: errors.New("disk full")}
	s := New(mock.New(mock.NewStore()), creds)

	res := s.Login(context.Background(), "admin@example.com", "123456")
	require.False(t, res.OK)
	assert.Equal(t, "Something went wrong. Please try again.", res.Message)
	assert.False(t, s.Authenticated(), "session must not be established without durable tokens")
}

func TestLogoutClearsEverything(t *testing.T) {
	fired := 0
	s, creds := newStore(t, WithSignedOutHook(func() { fired++ }))
	ctx := context.Background()
	login(t, s, "admin@example.com")

	s.Logout(ctx)

	assert.False(t, s.Authenticated())
	stored, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Empty())
	assert.Equal(t, 1, fired)

	// Logging out while anonymous is a harmless no-op.
	s.Logout(ctx)
	assert.False(t, s.Authenticated())
	assert.Equal(t, 2, fired)
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	s, creds := newStore(t)
	ctx := context.Background()

	res := s.Register(ctx, backend.Registration{
		Email:     "new@example.com",
		Password:  "abc",
		FirstName: "New",
	})
	require.True(t, res.OK)

	assert.False(t, s.Authenticated())
	stored, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Empty())
}

func TestRegisterDuplicateSurfacesMessage(t *testing.T) {
	s, _ := newStore(t)

	res := s.Register(context.Background(), backend.Registration{
		Email:    "admin@example.com",
		Password: "abc",
	})
	require.False(t, res.OK)
	assert.Equal(t, backend.ErrEmailTaken.Error(), res.Message)
}

func TestRefreshUserRestoresSession(t *testing.T) {
	s, creds := newStore(t)
	ctx := context.Background()
	login(t, s, "manager@example.com")
	stored, err := creds.Load(ctx)
	require.NoError(t, err)

	// A second store over the same credential store picks the session up.
	restored := New(mock.New(mock.NewStore()), creds)
	restored.RefreshUser(ctx)

	require.True(t, restored.Authenticated())
	assert.Equal(t, "manager@example.com", restored.CurrentUser().Email)
	after, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, after)
}

func TestRefreshUserWithoutCredentials(t *testing.T) {
	s, _ := newStore(t)

	s.RefreshUser(context.Background())

	assert.False(t, s.Authenticated())
	assert.False(t, s.Checking())
}

func TestRefreshUserInvalidTokenClearsCredentials(t *testing.T) {
	s, creds := newStore(t)
	ctx := context.Background()

	require.NoError(t, creds.Save(ctx, Credentials{
		AccessToken:  "stale-token",
		RefreshToken: "stale-refresh",
	}))

	s.RefreshUser(ctx)

	assert.False(t, s.Authenticated())
	stored, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored.AccessToken)
	assert.Empty(t, stored.RefreshToken, "both tokens go when restore fails")
}

func TestRefreshUserLoadFailureStaysAnonymous(t *testing.T) {
	creds := &failingCreds{loadErr: errors.New("storage offline")}
	s := New(mock.New(mock.NewStore()), creds)

	s.RefreshUser(context.Background())
	assert.False(t, s.Authenticated())
}

func TestChangePasswordRequiresSession(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	res := s.ChangePassword(ctx, "123456", "654321")
	require.False(t, res.OK)
	assert.Equal(t, backend.ErrNotAuthenticated.Error(), res.Message)

	login(t, s, "admin@example.com")
	res = s.ChangePassword(ctx, "123456", "654321")
	assert.True(t, res.OK)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	s, _ := newStore(t)
	name := "Nobody"

	res := s.UpdateProfile(context.Background(), identity.ProfilePatch{FirstName: &name})
	require.False(t, res.OK)
	assert.Equal(t, "Not authenticated", res.Message)
}

func TestUpdateProfileReplacesSnapshot(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	login(t, s, "editor@example.com")
	before := s.CurrentUser()

	first := "Helena"
	res := s.UpdateProfile(ctx, identity.ProfilePatch{FirstName: &first})
	require.True(t, res.OK)
	assert.Equal(t, "Profile updated", res.Message)

	after := s.CurrentUser()
	assert.Equal(t, "Helena", after.FirstName)
	assert.Equal(t, "Elena", before.FirstName, "previous snapshot stays immutable")
	assert.NotSame(t, before, after)
}

func TestUpdatePreferences(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	login(t, s, "viewer@example.com")

	theme := "dark"
	res := s.UpdatePreferences(ctx, identity.PreferencesPatch{Theme: &theme})
	require.True(t, res.OK)
	assert.Equal(t, "dark", s.CurrentUser().Profile.Preferences.Theme)
	assert.Equal(t, "en", s.CurrentUser().Profile.Preferences.Language)
}

func TestAvatarRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	login(t, s, "viewer@example.com")

	res := s.UploadAvatar(ctx, "me.png", []byte{1, 2, 3})
	require.True(t, res.OK)
	assert.NotEmpty(t, s.CurrentUser().AvatarURL)

	res = s.DeleteAvatar(ctx)
	require.True(t, res.OK)
	assert.Empty(t, s.CurrentUser().AvatarURL)
}

func TestForgotAndResetPassword(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.True(t, s.ForgotPassword(ctx, "admin@example.com").OK)
	assert.True(t, s.ForgotPassword(ctx, "ghost@example.com").OK, "unknown emails are indistinguishable")
	assert.False(t, s.ForgotPassword(ctx, "  ").OK)

	res := s.ResetPassword(ctx, "short", "newpass")
	require.False(t, res.OK)
	assert.Equal(t, backend.ErrInvalidToken.Error(), res.Message)

	assert.True(t, s.ResetPassword(ctx, "long-enough-token", "newpass").OK)
}

func TestPrincipalNilWhenAnonymous(t *testing.T) {
	s, _ := newStore(t)

	assert.Nil(t, s.Principal(), "anonymous principal must be a true nil interface")

	login(t, s, "admin@example.com")
	require.NotNil(t, s.Principal())
	assert.Equal(t, "admin", s.Principal().RoleName())
}
