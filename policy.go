package userbase

import "strconv"

// Policy is a declarative authorization rule evaluated by the guard once per
// authenticated request, before the handler body runs.
type Policy interface {
	Allow(p *Principal, params map[string]string) bool
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(p *Principal, params map[string]string) bool

func (f PolicyFunc) Allow(p *Principal, params map[string]string) bool {
	return f(p, params)
}

// RequireRole allows principals holding the given role label
func RequireRole(role Role) Policy {
	return PolicyFunc(func(p *Principal, _ map[string]string) bool {
		return p.HasRole(role)
	})
}

// RequireSelfID allows principals whose numeric id equals the named path
// parameter. Exact equality, no partial matches.
func RequireSelfID(param string) Policy {
	return PolicyFunc(func(p *Principal, params map[string]string) bool {
		if p == nil {
			return false
		}
		raw, ok := params[param]
		if !ok {
			return false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false
		}
		return p.ID == id
	})
}

// RequireSelfUsername allows principals whose username equals the named path
// parameter. Exact equality, no case folding.
func RequireSelfUsername(param string) Policy {
	return PolicyFunc(func(p *Principal, params map[string]string) bool {
		if p == nil {
			return false
		}
		raw, ok := params[param]
		if !ok || raw == "" {
			return false
		}
		return p.Username == raw
	})
}

// AnyOf composes policies with OR semantics
func AnyOf(policies ...Policy) Policy {
	return PolicyFunc(func(p *Principal, params map[string]string) bool {
		for _, policy := range policies {
			if policy.Allow(p, params) {
				return true
			}
		}
		return false
	})
}

// AllOf composes policies with AND semantics
func AllOf(policies ...Policy) Policy {
	return PolicyFunc(func(p *Principal, params map[string]string) bool {
		for _, policy := range policies {
			if !policy.Allow(p, params) {
				return false
			}
		}
		return true
	})
}

// AdminOrSelfID is the common "admin role OR own record" rule
func AdminOrSelfID(param string) Policy {
	return AnyOf(RequireRole(RoleAdmin), RequireSelfID(param))
}

// AdminOrSelfUsername is the username-keyed variant of AdminOrSelfID
func AdminOrSelfUsername(param string) Policy {
	return AnyOf(RequireRole(RoleAdmin), RequireSelfUsername(param))
}
