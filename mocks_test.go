package userbase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/oaklane/userbase"
)

// MockUsers implements userbase.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*userbase.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*userbase.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*userbase.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*userbase.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string) (*userbase.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*userbase.User)
	return user, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*userbase.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*userbase.User)
	return users, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *userbase.User) (*userbase.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*userbase.User)
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *userbase.User) (*userbase.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*userbase.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var _ userbase.Users = (*MockUsers)(nil)
