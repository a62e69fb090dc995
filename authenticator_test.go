package userbase_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oaklane/userbase"
)

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, password string) *userbase.User {
	t.Helper()
	return &userbase.User{
		ID:                    42,
		Username:              "jdoe",
		Email:                 "jdoe@example.com",
		PasswordHash:          hashForTest(t, password),
		Roles:                 []string{userbase.RoleUser},
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	signingKey := []byte("test-signing-key")

	t.Run("successful login issues a verifiable token", func(t *testing.T) {
		store := new(MockUsers)
		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

		tokens := userbase.NewTokenService(signingKey, 24, "test-issuer", nil)
		auther := userbase.NewAuthenticator(store, tokens)

		token, err := auther.Login(ctx, "jdoe", "password123")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := tokens.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "jdoe", claims.Subject)
		assert.Equal(t, int64(42), claims.PrincipalID())

		store.AssertExpectations(t)
	})

	t.Run("login by email resolves the same account", func(t *testing.T) {
		store := new(MockUsers)
		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, "jdoe@example.com").Return(user, nil).Once()

		tokens := userbase.NewTokenService(signingKey, 24, "test-issuer", nil)
		auther := userbase.NewAuthenticator(store, tokens)

		token, err := auther.Login(ctx, "jdoe@example.com", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("roles are not embedded in the token", func(t *testing.T) {
		store := new(MockUsers)
		user := activeUser(t, "password123")
		user.Roles = []string{userbase.RoleAdmin, userbase.RoleUser}
		store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

		tokens := userbase.NewTokenService(signingKey, 24, "test-issuer", nil)
		auther := userbase.NewAuthenticator(store, tokens)

		token, err := auther.Login(ctx, "jdoe", "password123")
		require.NoError(t, err)

		parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
		require.NoError(t, err)
		mapClaims := parsed.Claims.(jwt.MapClaims)
		assert.NotContains(t, mapClaims, "roles")
		assert.NotContains(t, mapClaims, "role")
	})
}

func TestVerifyFailsClosed(t *testing.T) {
	ctx := context.Background()
	signingKey := []byte("test-signing-key")
	tokens := userbase.NewTokenService(signingKey, 24, "test-issuer", nil)

	t.Run("unknown identifier and wrong password yield the identical error", func(t *testing.T) {
		store := new(MockUsers)
		store.On("GetByIdentifier", ctx, "ghost").
			Return(nil, userbase.NewNotFoundError("User not found with identifier: %s", "ghost")).Once()

		user := activeUser(t, "password123")
		store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

		auther := userbase.NewAuthenticator(store, tokens)

		_, errUnknown := auther.Verify(ctx, "ghost", "whatever")
		_, errWrongPwd := auther.Verify(ctx, "jdoe", "not-the-password")

		require.Error(t, errUnknown)
		require.Error(t, errWrongPwd)
		assert.Equal(t, errUnknown.Error(), errWrongPwd.Error())
		assert.ErrorIs(t, errUnknown, userbase.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPwd, userbase.ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		store := new(MockUsers)
		user := activeUser(t, "password123")
		user.Enabled = false
		store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

		auther := userbase.NewAuthenticator(store, tokens)
		_, err := auther.Verify(ctx, "jdoe", "password123")
		assert.ErrorIs(t, err, userbase.ErrInvalidCredentials)
	})

	t.Run("locked account", func(t *testing.T) {
		store := new(MockUsers)
		user := activeUser(t, "password123")
		user.AccountNonLocked = false
		store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

		auther := userbase.NewAuthenticator(store, tokens)
		_, err := auther.Verify(ctx, "jdoe", "password123")
		assert.ErrorIs(t, err, userbase.ErrInvalidCredentials)
	})

	t.Run("empty password short circuits", func(t *testing.T) {
		store := new(MockUsers)
		auther := userbase.NewAuthenticator(store, tokens)

		_, err := auther.Verify(ctx, "jdoe", "")
		assert.ErrorIs(t, err, userbase.ErrInvalidCredentials)
		store.AssertNotCalled(t, "GetByIdentifier")
	})

	t.Run("storage failure surfaces as internal", func(t *testing.T) {
		store := new(MockUsers)
		store.On("GetByIdentifier", ctx, "jdoe").
			Return(nil, goerrors.New("connection reset", goerrors.CategoryInternal)).Once()

		auther := userbase.NewAuthenticator(store, tokens)
		_, err := auther.Verify(ctx, "jdoe", "password123")

		require.Error(t, err)
		assert.NotErrorIs(t, err, userbase.ErrInvalidCredentials)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryInternal, rich.Category)
	})
}

func TestVerifySnapshotsPrincipal(t *testing.T) {
	ctx := context.Background()
	store := new(MockUsers)
	user := activeUser(t, "password123")
	user.Roles = []string{userbase.RoleAdmin, userbase.RoleUser}
	store.On("GetByIdentifier", ctx, "jdoe").Return(user, nil).Once()

	tokens := userbase.NewTokenService([]byte("k"), 24, "", nil)
	auther := userbase.NewAuthenticator(store, tokens)

	principal, err := auther.Verify(ctx, "jdoe", "password123")
	require.NoError(t, err)

	assert.Equal(t, int64(42), principal.ID)
	assert.Equal(t, "jdoe", principal.Username)
	assert.True(t, principal.HasRole(userbase.RoleAdmin))

	// the snapshot must not alias the stored record
	principal.Roles[0] = "mutated"
	assert.Equal(t, userbase.RoleAdmin, user.Roles[0])
}
