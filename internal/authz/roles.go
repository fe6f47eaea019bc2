package authz

import "fmt"

// System role names. These identifiers are immutable; custom roles may be
// added by a directory but never reuse these names.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleEditor  = "editor"
	RoleViewer  = "viewer"
)

// perm builds a permission with its canonical "resource:action" name.
func perm(r Resource, a Action) Permission {
	return Permission{
		ID:       fmt.Sprintf("perm-%s-%s", r, a),
		Name:     fmt.Sprintf("%s:%s", r, a),
		Resource: r,
		Action:   a,
	}
}

// systemGrants declares the permission set of each system role.
var systemGrants = map[string][]Permission{
	RoleAdmin: {
		perm(ResourceUsers, ActionManage),
		perm(ResourceProducts, ActionManage),
		perm(ResourceOrders, ActionManage),
		perm(ResourceSettings, ActionManage),
		perm(ResourceDashboard, ActionManage),
		perm(ResourceReports, ActionManage),
	},
	RoleManager: {
		perm(ResourceUsers, ActionRead),
		perm(ResourceUsers, ActionUpdate),
		perm(ResourceProducts, ActionManage),
		perm(ResourceOrders, ActionManage),
		perm(ResourceSettings, ActionRead),
		perm(ResourceDashboard, ActionRead),
		perm(ResourceReports, ActionRead),
	},
	RoleEditor: {
		perm(ResourceProducts, ActionCreate),
		perm(ResourceProducts, ActionRead),
		perm(ResourceProducts, ActionUpdate),
		perm(ResourceOrders, ActionRead),
		perm(ResourceOrders, ActionUpdate),
		perm(ResourceDashboard, ActionRead),
	},
	RoleViewer: {
		perm(ResourceProducts, ActionRead),
		perm(ResourceOrders, ActionRead),
		perm(ResourceDashboard, ActionRead),
	},
}

var roleDescriptions = map[string]string{
	RoleAdmin:   "Full access to every resource",
	RoleManager: "Runs day-to-day catalog and order operations",
	RoleEditor:  "Maintains product and order content",
	RoleViewer:  "Read-only access to operational views",
}

// SystemRoles returns the built-in role catalog. Each call returns fresh
// copies so callers cannot mutate the definitions.
func SystemRoles() []Role {
	names := []string{RoleAdmin, RoleManager, RoleEditor, RoleViewer}
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		role, _ := RoleByName(name)
		roles = append(roles, role)
	}
	return roles
}

// RoleByName resolves a system role by its name key.
func RoleByName(name string) (Role, bool) {
	grants, ok := systemGrants[name]
	if !ok {
		return Role{}, false
	}
	perms := make([]Permission, len(grants))
	copy(perms, grants)
	return Role{
		ID:          "role-" + name,
		Name:        name,
		Description: roleDescriptions[name],
		Permissions: perms,
		System:      true,
	}, true
}
