package userbase

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store contract. It exclusively owns User records;
// every other component only reads them.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByIdentifier resolves a single combined username-or-email field,
	// trying the username column first and falling back to email.
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun-backed Users store
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

// CreateSchema creates the users table and its uniqueness constraints. The
// UNIQUE columns are the backstop that closes the check-then-insert race on
// concurrent signups; the application-level existence checks only exist to
// produce friendlier conflict messages.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create users table")
	}
	return nil
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("User not found with id: %d", id)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError("User not found with username: %s", username)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	for _, column := range []string{"username", "email"} {
		record := &User{}
		err := a.db.NewSelect().
			Model(record).
			Where("?TableAlias."+column+" = ?", identifier).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
		}

		return record, nil
	}

	return nil, NewNotFoundError("User not found with identifier: %s", identifier)
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User
	if err := a.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	if taken, err := a.ExistsByUsername(ctx, record.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewConflictError("Username is already taken!", "username")
	}

	if taken, err := a.ExistsByEmail(ctx, record.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewConflictError("Email is already in use!", "email")
	}

	record.Roles = NormalizeRoles(record.Roles)
	now := time.Now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := a.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, NewConflictError("Username or email is already in use!", "username")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist user")
	}

	return record, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	now := time.Now()
	record.UpdatedAt = &now

	res, err := a.db.NewUpdate().
		Model(record).
		Column("username", "email", "full_name", "roles", "enabled",
			"account_non_expired", "account_non_locked", "credentials_non_expired",
			"updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, NewConflictError("Username or email is already in use!", "username")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, NewNotFoundError("User not found with id: %d", record.ID)
	}

	return record, nil
}

func (a *users) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	now := time.Now()
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NewNotFoundError("User not found with id: %d", id)
	}

	return nil
}

func (a *users) Delete(ctx context.Context, id int64) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NewNotFoundError("User not found with id: %d", id)
	}

	return nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	q := a.db.NewSelect().
		Model((*User)(nil)).
		Where("username = ?", username)

	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check username")
	}
	return exists, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	q := a.db.NewSelect().
		Model((*User)(nil)).
		Where("email = ?", email)

	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email")
	}
	return exists, nil
}

func (a *users) Count(ctx context.Context) (int, error) {
	count, err := a.db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count users")
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
