package authz

// Caps binds the permission primitives to the closed resource/action
// enumerations as fixed predicates, matching what navigation and form
// gating asks for. Purely derived; no independent state.
type Caps struct {
	ev *Evaluator
}

// Can exposes the capability table for the current principal.
func (e *Evaluator) Can() Caps { return Caps{ev: e} }

func (c Caps) ViewDashboard() bool { return c.ev.HasPermission(Check{ResourceDashboard, ActionRead}) }
func (c Caps) ViewReports() bool   { return c.ev.HasPermission(Check{ResourceReports, ActionRead}) }

func (c Caps) ViewUsers() bool   { return c.ev.HasPermission(Check{ResourceUsers, ActionRead}) }
func (c Caps) CreateUsers() bool { return c.ev.HasPermission(Check{ResourceUsers, ActionCreate}) }
func (c Caps) EditUsers() bool   { return c.ev.HasPermission(Check{ResourceUsers, ActionUpdate}) }
func (c Caps) DeleteUsers() bool { return c.ev.HasPermission(Check{ResourceUsers, ActionDelete}) }
func (c Caps) ManageUsers() bool { return c.ev.HasPermission(Check{ResourceUsers, ActionManage}) }

func (c Caps) ViewProducts() bool   { return c.ev.HasPermission(Check{ResourceProducts, ActionRead}) }
func (c Caps) CreateProducts() bool { return c.ev.HasPermission(Check{ResourceProducts, ActionCreate}) }
func (c Caps) EditProducts() bool   { return c.ev.HasPermission(Check{ResourceProducts, ActionUpdate}) }
func (c Caps) DeleteProducts() bool { return c.ev.HasPermission(Check{ResourceProducts, ActionDelete}) }

func (c Caps) ViewOrders() bool   { return c.ev.HasPermission(Check{ResourceOrders, ActionRead}) }
func (c Caps) CreateOrders() bool { return c.ev.HasPermission(Check{ResourceOrders, ActionCreate}) }
func (c Caps) EditOrders() bool   { return c.ev.HasPermission(Check{ResourceOrders, ActionUpdate}) }
func (c Caps) DeleteOrders() bool { return c.ev.HasPermission(Check{ResourceOrders, ActionDelete}) }

func (c Caps) ViewSettings() bool   { return c.ev.HasPermission(Check{ResourceSettings, ActionRead}) }
func (c Caps) ManageSettings() bool { return c.ev.HasPermission(Check{ResourceSettings, ActionManage}) }

// Ident binds role-membership checks to the system role names.
type Ident struct {
	ev *Evaluator
}

// Is exposes the role table for the current principal.
func (e *Evaluator) Is() Ident { return Ident{ev: e} }

func (i Ident) Admin() bool   { return i.ev.HasRole(RoleAdmin) }
func (i Ident) Manager() bool { return i.ev.HasRole(RoleManager) }
func (i Ident) Editor() bool  { return i.ev.HasRole(RoleEditor) }
func (i Ident) Viewer() bool  { return i.ev.HasRole(RoleViewer) }
