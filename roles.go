package userbase

// Role is a coarse permission label attached to a User
type Role = string

const (
	// RoleUser is the base role every account holds
	RoleUser Role = "user"
	// RoleAdmin grants access to the administrator-gated endpoints
	RoleAdmin Role = "admin"
)

// IsValidRole checks if the role is one of the predefined labels
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// NormalizeRoles trims, dedupes, and defaults a role set. A nil or empty
// input yields the base role so the set is never empty after creation.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return []string{RoleUser}
	}

	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	if len(out) == 0 {
		return []string{RoleUser}
	}

	return out
}
