package mocks

import (
	"context"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
)

// MockUserDirectory implements service.UserDirectory for testing.
// Unset function fields return zero values. Calls records the name of
// every method invoked, in order.
type MockUserDirectory struct {
	ListUsersFn          func(ctx context.Context) ([]domain.User, error)
	ListUsersWithNotesFn func(ctx context.Context) ([]domain.User, error)
	GetUserFn            func(ctx context.Context, id int64) (*domain.User, error)
	GetUserWithNotesFn   func(ctx context.Context, id int64) (*domain.User, error)
	RegisterFn           func(ctx context.Context, reg service.Registration) (*domain.User, error)
	UpdateFn             func(ctx context.Context, update service.UserUpdate) error
	DeleteFn             func(ctx context.Context, id int64) error
	AuthenticateFn       func(ctx context.Context, username, password string) (*auth.Token, error)
	ChangePasswordFn     func(ctx context.Context, id int64, current, next string) (bool, error)

	Calls []string
}

var _ service.UserDirectory = (*MockUserDirectory)(nil)

// Called reports whether method was invoked at least once.
func (m *MockUserDirectory) Called(method string) bool {
	for _, c := range m.Calls {
		if c == method {
			return true
		}
	}
	return false
}

// ListUsers implements service.UserDirectory
func (m *MockUserDirectory) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.Calls = append(m.Calls, "ListUsers")
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx)
	}
	return nil, nil
}

// ListUsersWithNotes implements service.UserDirectory
func (m *MockUserDirectory) ListUsersWithNotes(ctx context.Context) ([]domain.User, error) {
	m.Calls = append(m.Calls, "ListUsersWithNotes")
	if m.ListUsersWithNotesFn != nil {
		return m.ListUsersWithNotesFn(ctx)
	}
	return nil, nil
}

// GetUser implements service.UserDirectory
func (m *MockUserDirectory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	m.Calls = append(m.Calls, "GetUser")
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return nil, nil
}

// GetUserWithNotes implements service.UserDirectory
func (m *MockUserDirectory) GetUserWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	m.Calls = append(m.Calls, "GetUserWithNotes")
	if m.GetUserWithNotesFn != nil {
		return m.GetUserWithNotesFn(ctx, id)
	}
	return nil, nil
}

// Register implements service.UserDirectory
func (m *MockUserDirectory) Register(ctx context.Context, reg service.Registration) (*domain.User, error) {
	m.Calls = append(m.Calls, "Register")
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, reg)
	}
	return &domain.User{}, nil
}

// Update implements service.UserDirectory
func (m *MockUserDirectory) Update(ctx context.Context, update service.UserUpdate) error {
	m.Calls = append(m.Calls, "Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, update)
	}
	return nil
}

// Delete implements service.UserDirectory
func (m *MockUserDirectory) Delete(ctx context.Context, id int64) error {
	m.Calls = append(m.Calls, "Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// Authenticate implements service.UserDirectory
func (m *MockUserDirectory) Authenticate(ctx context.Context, username, password string) (*auth.Token, error) {
	m.Calls = append(m.Calls, "Authenticate")
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, username, password)
	}
	return nil, nil
}

// ChangePassword implements service.UserDirectory
func (m *MockUserDirectory) ChangePassword(ctx context.Context, id int64, current, next string) (bool, error) {
	m.Calls = append(m.Calls, "ChangePassword")
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, id, current, next)
	}
	return false, nil
}
