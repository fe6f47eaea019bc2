package authz

// subsumption declares which held actions satisfy which requested actions.
// An action always satisfies itself; manage satisfies everything on the
// same resource.
var subsumption = map[Action][]Action{
	ActionManage: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage},
	ActionCreate: {ActionCreate},
	ActionRead:   {ActionRead},
	ActionUpdate: {ActionUpdate},
	ActionDelete: {ActionDelete},
}

// Satisfies reports whether holding the first action grants the second.
func Satisfies(held, requested Action) bool {
	for _, a := range subsumption[held] {
		if a == requested {
			return true
		}
	}
	return false
}

// Grants reports whether a held permission satisfies a check. The resource
// must match exactly; the action is evaluated through the subsumption table.
func Grants(held Permission, c Check) bool {
	if held.Resource != c.Resource {
		return false
	}
	return Satisfies(held.Action, c.Action)
}
