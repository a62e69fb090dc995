package userbase

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the credential store record. The password hash never leaves the
// package: outward-facing code works with UserResponse projections.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                    int64      `bun:"id,pk,autoincrement" json:"id"`
	Username              string     `bun:"username,notnull,unique" json:"username"`
	Email                 string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash          string     `bun:"password_hash,notnull" json:"-"`
	FullName              string     `bun:"full_name" json:"full_name,omitempty"`
	Roles                 []string   `bun:"roles,notnull" json:"roles"`
	Enabled               bool       `bun:"enabled,notnull" json:"enabled"`
	AccountNonExpired     bool       `bun:"account_non_expired,notnull" json:"account_non_expired"`
	AccountNonLocked      bool       `bun:"account_non_locked,notnull" json:"account_non_locked"`
	CredentialsNonExpired bool       `bun:"credentials_non_expired,notnull" json:"credentials_non_expired"`
	CreatedAt             *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasRole reports whether the record carries the given role label
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanAuthenticate reports whether the account may establish a session. All
// four status flags must hold.
func (u *User) CanAuthenticate() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}

// Principal returns the request-scoped identity snapshot for this record
func (u *User) Principal() *Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)

	return &Principal{
		ID:       u.ID,
		Username: u.Username,
		Roles:    roles,
	}
}

// UserResponse is the public projection of a User. It is the only shape
// handlers serialize; it carries neither the password nor its hash.
type UserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name,omitempty"`
	Roles     []string   `json:"roles"`
	Enabled   bool       `json:"enabled"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Response maps the record to its public projection
func (u *User) Response() *UserResponse {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)

	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Roles:     roles,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
