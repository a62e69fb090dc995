package userbase

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ChangePasswordMessage carries a password change for a single account. When
// RequireCurrent is set the caller must prove knowledge of the current
// password; administrators resetting someone else's credentials skip it.
type ChangePasswordMessage struct {
	UserID          int64  `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	RequireCurrent  bool   `json:"-"`
}

func (e ChangePasswordMessage) Type() string { return "user.change_password" }

// ChangePasswordHandler is the only mutation path for stored password hashes
// after creation. The general update operation never touches them.
type ChangePasswordHandler struct {
	users  Users
	hasher PasswordHasher
}

// NewChangePasswordHandler wires the handler
func NewChangePasswordHandler(users Users, hasher PasswordHasher) *ChangePasswordHandler {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &ChangePasswordHandler{users: users, hasher: hasher}
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	user, err := h.users.GetByID(ctx, event.UserID)
	if err != nil {
		return err
	}

	if event.RequireCurrent {
		if err := h.hasher.ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := h.hasher.HashPassword(event.NewPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return h.users.UpdatePassword(ctx, user.ID, hash)
}
