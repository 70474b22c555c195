package mocks

import (
	"context"
	"database/sql"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore interface for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

func (m *TestifyMockUserStore) userResult(args mock.Arguments) (*domain.User, error) {
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TestifyMockUserStore) usersResult(args mock.Arguments) ([]domain.User, error) {
	if users, ok := args.Get(0).([]domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.UserStore.List
func (m *TestifyMockUserStore) List(ctx context.Context) ([]domain.User, error) {
	return m.usersResult(m.Called(ctx))
}

// ListWithNotes is a mock implementation of store.UserStore.ListWithNotes
func (m *TestifyMockUserStore) ListWithNotes(ctx context.Context) ([]domain.User, error) {
	return m.usersResult(m.Called(ctx))
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *TestifyMockUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.userResult(m.Called(ctx, id))
}

// GetByIDWithNotes is a mock implementation of store.UserStore.GetByIDWithNotes
func (m *TestifyMockUserStore) GetByIDWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	return m.userResult(m.Called(ctx, id))
}

// GetByUsername is a mock implementation of store.UserStore.GetByUsername
func (m *TestifyMockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, username))
}

// Create is a mock implementation of store.UserStore.Create
func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// Update is a mock implementation of store.UserStore.Update
func (m *TestifyMockUserStore) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// UpdatePassword is a mock implementation of store.UserStore.UpdatePassword
func (m *TestifyMockUserStore) UpdatePassword(ctx context.Context, id int64, currentHash, newHash string) error {
	args := m.Called(ctx, id, currentHash, newHash)
	return args.Error(0)
}

// Delete is a mock implementation of store.UserStore.Delete
func (m *TestifyMockUserStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// WithTx returns the mock itself; tests using a nil *sql.DB never call it.
func (m *TestifyMockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
