package authz

// Resource identifies a guarded area of the platform.
type Resource string

// Closed resource enumeration. Checks against anything else never match.
const (
	ResourceUsers     Resource = "users"
	ResourceProducts  Resource = "products"
	ResourceOrders    Resource = "orders"
	ResourceSettings  Resource = "settings"
	ResourceDashboard Resource = "dashboard"
	ResourceReports   Resource = "reports"
)

// Action identifies an operation on a resource.
type Action string

// Closed action enumeration. ActionManage subsumes the other four, see policy.go.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Resources lists every known resource.
func Resources() []Resource {
	return []Resource{
		ResourceUsers,
		ResourceProducts,
		ResourceOrders,
		ResourceSettings,
		ResourceDashboard,
		ResourceReports,
	}
}

// Actions lists every known action.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
}

// Permission represents an atomic (resource, action) capability.
type Permission struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Resource    Resource `json:"resource"`
	Action      Action   `json:"action"`
	Description string   `json:"description,omitempty"`
}

// Role represents a named permission bundle assigned to a principal.
// Name is the sole key used for role checks.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	System      bool         `json:"isSystem"`
}

// Check is the value object accepted by permission predicates.
type Check struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// Principal describes the authenticated actor as seen by the evaluator.
type Principal interface {
	RoleName() string
	PermissionSet() []Permission
}
