package userbase_test

import (
	"context"
	"database/sql"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/oaklane/userbase"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// a second connection to :memory: would see a different database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, userbase.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedUser(t *testing.T, store userbase.Users, username, email string, roles ...string) *userbase.User {
	t.Helper()

	created, err := store.Create(context.Background(), &userbase.User{
		Username:              username,
		Email:                 email,
		PasswordHash:          hashForTest(t, "password123"),
		FullName:              "Test " + username,
		Roles:                 roles,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	})
	require.NoError(t, err)
	return created
}

func TestUsersCreate(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))

	created := seedUser(t, store, "jdoe", "jdoe@example.com")

	assert.NotZero(t, created.ID)
	assert.Equal(t, "jdoe", created.Username)
	assert.Equal(t, []string{userbase.RoleUser}, created.Roles, "empty role set defaults to the base role")
	require.NotNil(t, created.CreatedAt)
	require.NotNil(t, created.UpdatedAt)

	loaded, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Username, loaded.Username)
	assert.Equal(t, created.Roles, loaded.Roles)
}

func TestUsersCreateConflicts(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	seedUser(t, store, "jdoe", "jdoe@example.com")

	t.Run("duplicate username", func(t *testing.T) {
		_, err := store.Create(ctx, &userbase.User{
			Username:     "jdoe",
			Email:        "other@example.com",
			PasswordHash: "x",
		})
		require.Error(t, err)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryConflict, rich.Category)
		assert.Equal(t, "Username is already taken!", rich.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := store.Create(ctx, &userbase.User{
			Username:     "other",
			Email:        "jdoe@example.com",
			PasswordHash: "x",
		})
		require.Error(t, err)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryConflict, rich.Category)
		assert.Equal(t, "Email is already in use!", rich.Message)
	})
}

func TestUsersGetByIdentifier(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	created := seedUser(t, store, "jdoe", "jdoe@example.com")

	byUsername, err := store.GetByIdentifier(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	byEmail, err := store.GetByIdentifier(ctx, "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.GetByIdentifier(ctx, "ghost")
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersGetMissing(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))

	_, err := store.GetByID(ctx, 999)
	assert.True(t, goerrors.IsNotFound(err))

	_, err = store.GetByUsername(ctx, "ghost")
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersList(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))

	seedUser(t, store, "alpha", "alpha@example.com")
	seedUser(t, store, "bravo", "bravo@example.com")

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0].Username)
	assert.Equal(t, "bravo", records[1].Username)
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	created := seedUser(t, store, "jdoe", "jdoe@example.com", userbase.RoleUser)
	originalHash := created.PasswordHash

	created.Email = "new@example.com"
	created.FullName = "Jane Doe"
	created.Roles = []string{userbase.RoleAdmin, userbase.RoleUser}
	created.Enabled = false
	created.PasswordHash = "should-not-be-written"

	_, err := store.Update(ctx, created)
	require.NoError(t, err)

	loaded, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", loaded.Email)
	assert.Equal(t, "Jane Doe", loaded.FullName)
	assert.Equal(t, []string{userbase.RoleAdmin, userbase.RoleUser}, loaded.Roles)
	assert.False(t, loaded.Enabled)
	assert.Equal(t, originalHash, loaded.PasswordHash, "Update never touches the password column")
}

func TestUsersUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))

	_, err := store.Update(ctx, &userbase.User{ID: 999, Username: "ghost", Email: "ghost@example.com"})
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersUpdatePassword(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	created := seedUser(t, store, "jdoe", "jdoe@example.com")

	newHash := hashForTest(t, "new-password")
	require.NoError(t, store.UpdatePassword(ctx, created.ID, newHash))

	loaded, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, newHash, loaded.PasswordHash)

	err = store.UpdatePassword(ctx, 999, newHash)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersDelete(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	created := seedUser(t, store, "jdoe", "jdoe@example.com")

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err := store.GetByID(ctx, created.ID)
	assert.True(t, goerrors.IsNotFound(err))

	err = store.Delete(ctx, created.ID)
	assert.True(t, goerrors.IsNotFound(err), "deleting twice reports not found")
}

func TestUsersExistsChecks(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))
	created := seedUser(t, store, "jdoe", "jdoe@example.com")

	taken, err := store.ExistsByUsername(ctx, "jdoe", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = store.ExistsByUsername(ctx, "jdoe", created.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a record does not conflict with itself")

	taken, err = store.ExistsByEmail(ctx, "jdoe@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = store.ExistsByEmail(ctx, "free@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUsersCount(t *testing.T) {
	ctx := context.Background()
	store := userbase.NewUsersRepository(newTestDB(t))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	seedUser(t, store, "jdoe", "jdoe@example.com")

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
