package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/notes-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// List returns every user ordered by ID, without notes.
	List(ctx context.Context) ([]domain.User, error)

	// ListWithNotes returns every user ordered by ID with Notes populated.
	// Users without notes get an empty, non-nil slice.
	ListWithNotes(ctx context.Context) ([]domain.User, error)

	// GetByID retrieves a user by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByIDWithNotes retrieves a user by their ID with Notes populated.
	// Returns ErrUserNotFound if the user does not exist.
	GetByIDWithNotes(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username, including the password hash.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Create saves a new user and assigns its ID.
	// Returns ErrUsernameExists if the username is already taken.
	Create(ctx context.Context, user *domain.User) error

	// Update saves the profile fields (names, username, address) of an existing user.
	// The password hash is left untouched.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrUsernameExists if the new username belongs to another user.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePassword replaces the stored password hash with newHash, provided
	// the stored hash still equals currentHash.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrPasswordChanged if the stored hash differs from currentHash.
	UpdatePassword(ctx context.Context, id int64, currentHash, newHash string) error

	// Delete removes a user and their notes.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a UserStore that runs its queries in tx.
	// Stores without transactional backing may return themselves.
	WithTx(tx *sql.Tx) UserStore
}
