package rest_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/backend/mock"
	"github.com/helioshq/helios-admin/internal/backend/rest"
	"github.com/helioshq/helios-admin/internal/httpapi"
	"github.com/helioshq/helios-admin/internal/identity"
	"github.com/helioshq/helios-admin/internal/session"
	_ "github.com/helioshq/helios-admin/testing"
)

// newClient spins a real API over the mock directory and points a Client at
// it, exercising both sides of the wire contract.
func newClient(t *testing.T) *rest.Client {
	t.Helper()
	handler := httpapi.NewHandler(slog.Default(), mock.New(mock.NewStore()))
	r := chi.NewRouter()
	r.Route("/api/v1", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return rest.NewClient(srv.URL + "/api/v1/")
}

func TestLoginRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	grant, err := c.Login(ctx, backend.Credentials{Email: "admin@example.com", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", grant.User.Email)
	assert.Equal(t, "admin", grant.User.Role.Name)
	assert.NotEmpty(t, grant.User.Permissions)
	assert.NotEmpty(t, grant.AccessToken)
	assert.NotEmpty(t, grant.RefreshToken)

	user, err := c.GetCurrentUser(ctx, grant.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, grant.User.ID, user.ID)
}

func TestRemoteFailureMessagesSurvive(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, backend.Credentials{Email: "nobody@example.com", Password: "123456"})
	require.Error(t, err)

	msg, ok := backend.Displayable(err)
	require.True(t, ok, "remote envelope messages must stay displayable")
	assert.Equal(t, "User not found", msg)
}

func TestRegisterAndProfileOverTheWire(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	user, err := c.Register(ctx, backend.Registration{
		Email:     "wired@example.com",
		Password:  "abc",
		FirstName: "Wired",
		LastName:  "Person",
	})
	require.NoError(t, err)
	assert.Equal(t, "viewer", user.Role.Name)

	grant, err := c.Login(ctx, backend.Credentials{Email: "wired@example.com", Password: "abc"})
	require.NoError(t, err)

	bio := "over the wire"
	updated, err := c.UpdateProfile(ctx, grant.AccessToken, identity.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "over the wire", updated.Profile.Bio)

	theme := "dark"
	updated, err = c.UpdatePreferences(ctx, grant.AccessToken, identity.PreferencesPatch{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Profile.Preferences.Theme)
}

func TestAvatarOverTheWire(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	grant, err := c.Login(ctx, backend.Credentials{Email: "viewer@example.com", Password: "123"})
	require.NoError(t, err)

	user, err := c.UploadAvatar(ctx, grant.AccessToken, "pic.png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.NotEmpty(t, user.AvatarURL)

	user, err = c.DeleteAvatar(ctx, grant.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, user.AvatarURL)
}

func TestPasswordFlowsOverTheWire(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.ForgotPassword(ctx, "ghost@example.com"))
	require.NoError(t, c.ResetPassword(ctx, "long-enough-token", "newpass"))

	err := c.ResetPassword(ctx, "short", "newpass")
	require.Error(t, err)
	msg, ok := backend.Displayable(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid or expired token", msg)
}

// TestSessionStoreOverRestClient proves the client is a drop-in directory for
// the session store: the same flows work unchanged against a live API.
func TestSessionStoreOverRestClient(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	creds := session.NewMemoryCredentials()
	store := session.New(c, creds)

	res := store.Login(ctx, "manager@example.com", "123456")
	require.True(t, res.OK, res.Message)
	userID := store.CurrentUser().ID

	// A cold store over the same credentials restores the same principal.
	restored := session.New(c, creds)
	restored.RefreshUser(ctx)
	require.True(t, restored.Authenticated())
	assert.Equal(t, userID, restored.CurrentUser().ID)

	restored.Logout(ctx)
	assert.False(t, restored.Authenticated())
}
