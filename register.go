package userbase

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterUserMessage carries everything the creation path needs. The creation
// path exclusively owns the password-hash write.
type RegisterUserMessage struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates new accounts: hashes the password, applies role
// defaults, and persists through the credential store.
type RegisterUserHandler struct {
	users  Users
	hasher PasswordHasher
}

// NewRegisterUserHandler wires the handler
func NewRegisterUserHandler(users Users, hasher PasswordHasher) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &RegisterUserHandler{users: users, hasher: hasher}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:              event.Username,
		Email:                 event.Email,
		PasswordHash:          hash,
		FullName:              event.FullName,
		Roles:                 NormalizeRoles(event.Roles),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}

	created, err := h.users.Create(ctx, user)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	return created, nil
}
