package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshq/helios-admin/internal/authz"
	_ "github.com/helioshq/helios-admin/testing"
)

func sampleUser(t *testing.T) *User {
	t.Helper()
	role, ok := authz.RoleByName(authz.RoleEditor)
	require.True(t, ok)
	u := &User{
		ID:        "u-1",
		Email:     "elena@example.com",
		FirstName: "Elena",
		LastName:  "Brandt",
		IsActive:  true,
		Profile:   Profile{Preferences: DefaultPreferences()},
	}
	u.DisplayName = u.FullName()
	u.MaterializeRole(role)
	return u
}

func TestFullName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Elena", "Brandt", "Elena Brandt"},
		{"Elena", "", "Elena"},
		{"", "Brandt", "Brandt"},
		{"", "", ""},
	}
	for _, tc := range cases {
		u := &User{FirstName: tc.first, LastName: tc.last}
		assert.Equal(t, tc.want, u.FullName())
	}
}

func TestMaterializeRoleFlattensPermissions(t *testing.T) {
	u := sampleUser(t)
	assert.Equal(t, authz.RoleEditor, u.RoleName())
	assert.Equal(t, u.Role.Permissions, u.Permissions)

	admin, _ := authz.RoleByName(authz.RoleAdmin)
	u.MaterializeRole(admin)
	assert.Equal(t, authz.RoleAdmin, u.RoleName())
	assert.Len(t, u.Permissions, len(admin.Permissions))
}

func TestCloneIsDeep(t *testing.T) {
	u := sampleUser(t)
	cp := u.Clone()
	require.NotSame(t, u, cp)

	cp.FirstName = "Changed"
	cp.Permissions[0] = authz.Permission{Name: "tampered"}
	cp.Role.Permissions[0] = authz.Permission{Name: "tampered"}

	assert.Equal(t, "Elena", u.FirstName)
	assert.Equal(t, "products:create", u.Permissions[0].Name)
	assert.Equal(t, "products:create", u.Role.Permissions[0].Name)
}

func TestCloneNil(t *testing.T) {
	var u *User
	assert.Nil(t, u.Clone())
}

func TestApplyProfileMerge(t *testing.T) {
	u := sampleUser(t)
	first := "Helena"
	phone := "+49 30 1234"
	u.ApplyProfile(ProfilePatch{FirstName: &first, Phone: &phone})

	assert.Equal(t, "Helena", u.FirstName)
	assert.Equal(t, "Brandt", u.LastName)
	assert.Equal(t, "+49 30 1234", u.Profile.Phone)
	assert.Equal(t, "Elena Brandt", u.DisplayName, "a set display name is never recomputed")
}

func TestApplyProfileBackfillsDisplayName(t *testing.T) {
	u := sampleUser(t)
	empty := ""
	last := "Okafor"
	u.ApplyProfile(ProfilePatch{DisplayName: &empty, LastName: &last})
	assert.Equal(t, "Elena Okafor", u.DisplayName)
}

func TestApplyPreferencesMerge(t *testing.T) {
	u := sampleUser(t)
	theme := "dark"
	off := false
	u.ApplyPreferences(PreferencesPatch{Theme: &theme, EmailNotifications: &off})

	assert.Equal(t, "dark", u.Profile.Preferences.Theme)
	assert.False(t, u.Profile.Preferences.EmailNotifications)
	assert.Equal(t, "en", u.Profile.Preferences.Language)
	assert.Equal(t, "UTC", u.Profile.Preferences.Timezone)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, ProfilePatch{}.Empty())
	assert.True(t, PreferencesPatch{}.Empty())

	s := "x"
	assert.False(t, ProfilePatch{Bio: &s}.Empty())
	b := true
	assert.False(t, PreferencesPatch{PushNotifications: &b}.Empty())
}

func TestUserJSONShape(t *testing.T) {
	u := sampleUser(t)
	data, err := json.Marshal(u)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "displayName")
	assert.Contains(t, raw, "isActive")
	assert.NotContains(t, raw, "lastLoginAt", "zero last login is omitted")
}
