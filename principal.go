package userbase

import (
	"context"
	"strconv"
)

// Principal is the authenticated identity attached to a request. It is a
// snapshot of the user record at verification time and is never persisted.
type Principal struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal carries the given role label
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Subject returns the token subject for this principal
func (p *Principal) Subject() string {
	return p.Username
}

// IDString returns the identifier in its path-parameter form
func (p *Principal) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok
}
