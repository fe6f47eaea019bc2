package authz

// PrincipalSource resolves the current principal. A nil principal means an
// anonymous session; the evaluator treats that as "nothing is permitted"
// rather than as an error.
type PrincipalSource interface {
	Principal() Principal
}

// Evaluator answers authorization queries against the current principal.
// It holds no state of its own.
type Evaluator struct {
	source PrincipalSource
}

// NewEvaluator constructs an Evaluator bound to a principal source.
func NewEvaluator(source PrincipalSource) *Evaluator {
	return &Evaluator{source: source}
}

// Evaluate reports whether a principal satisfies a single check. Exposed as
// a pure function so policy behavior is testable without an Evaluator.
func Evaluate(p Principal, c Check) bool {
	if p == nil {
		return false
	}
	for _, held := range p.PermissionSet() {
		if Grants(held, c) {
			return true
		}
	}
	return false
}

// HasPermission reports whether the current principal satisfies the check.
func (e *Evaluator) HasPermission(c Check) bool {
	return Evaluate(e.principal(), c)
}

// HasRole reports whether the current principal carries the named role.
// The comparison is exact: no hierarchy between roles is evaluated.
func (e *Evaluator) HasRole(name string) bool {
	p := e.principal()
	if p == nil {
		return false
	}
	return p.RoleName() == name
}

// HasAnyPermission reports whether at least one check passes. An empty list
// yields false: no check can be satisfied.
func (e *Evaluator) HasAnyPermission(checks ...Check) bool {
	p := e.principal()
	for _, c := range checks {
		if Evaluate(p, c) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every check passes. An empty list is
// vacuously true.
func (e *Evaluator) HasAllPermissions(checks ...Check) bool {
	p := e.principal()
	for _, c := range checks {
		if !Evaluate(p, c) {
			return false
		}
	}
	return true
}

func (e *Evaluator) principal() Principal {
	if e == nil || e.source == nil {
		return nil
	}
	return e.source.Principal()
}
