package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRolesCatalog(t *testing.T) {
	roles := SystemRoles()
	require.Len(t, roles, 4)

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
		assert.True(t, role.System)
		assert.NotEmpty(t, role.Permissions)
		assert.Equal(t, "role-"+role.Name, role.ID)
	}
	assert.Equal(t, []string{RoleAdmin, RoleManager, RoleEditor, RoleViewer}, names)
}

func TestRoleByNameUnknown(t *testing.T) {
	_, ok := RoleByName("superuser")
	assert.False(t, ok)
}

func TestRoleByNameReturnsFreshCopies(t *testing.T) {
	a, ok := RoleByName(RoleViewer)
	require.True(t, ok)
	a.Permissions[0] = Permission{Name: "tampered"}

	b, ok := RoleByName(RoleViewer)
	require.True(t, ok)
	assert.Equal(t, "products:read", b.Permissions[0].Name, "catalog definitions must not be mutable through returned roles")
}

func TestPermissionNaming(t *testing.T) {
	p := perm(ResourceUsers, ActionManage)
	assert.Equal(t, "perm-users-manage", p.ID)
	assert.Equal(t, "users:manage", p.Name)
}
