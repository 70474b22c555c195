package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
)

// Registration is the input accepted when a new user signs up.
type Registration struct {
	FirstName         string `json:"firstName" validate:"required,max=100"`
	LastName          string `json:"lastName" validate:"required,max=100"`
	Username          string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password          string `json:"password" validate:"required,min=8,bcryptmax"`
	ConfirmedPassword string `json:"confirmedPassword" validate:"required,eqfield=Password"`
	Address           string `json:"address" validate:"max=150"`
}

// UserUpdate carries the editable profile fields of an existing user.
type UserUpdate struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Address   string
}

// UserDirectory manages user records and their credentials.
type UserDirectory interface {
	// ListUsers returns all users without notes.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// ListUsersWithNotes returns all users with their notes.
	ListUsersWithNotes(ctx context.Context) ([]domain.User, error)

	// GetUser returns the user with id, or store.ErrUserNotFound.
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// GetUserWithNotes returns the user with id and their notes, or store.ErrUserNotFound.
	GetUserWithNotes(ctx context.Context, id int64) (*domain.User, error)

	// Register hashes the password and stores a new user.
	Register(ctx context.Context, reg Registration) (*domain.User, error)

	// Update replaces the profile fields of an existing user.
	// Returns store.ErrUserNotFound or store.ErrUsernameExists.
	Update(ctx context.Context, update UserUpdate) error

	// Delete removes the user with id. Deleting a missing user is not an error.
	Delete(ctx context.Context, id int64) error

	// Authenticate checks credentials and issues an access token.
	// Returns ErrInvalidCredentials when the username or password is wrong.
	Authenticate(ctx context.Context, username, password string) (*auth.Token, error)

	// ChangePassword replaces the password of user id when current matches.
	// Returns false, nil when current is wrong.
	ChangePassword(ctx context.Context, id int64, current, next string) (bool, error)
}

// UserDirectoryImpl implements the UserDirectory interface
type UserDirectoryImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	tokens    auth.JWTService
	db        *sql.DB
	logger    *slog.Logger
}

// Ensure UserDirectoryImpl implements UserDirectory interface
var _ UserDirectory = (*UserDirectoryImpl)(nil)

// NewUserDirectory creates a UserDirectory. db may be nil when userStore
// has no transactional backing; writes then run directly on userStore.
func NewUserDirectory(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	db *sql.DB,
	log *slog.Logger,
) (*UserDirectoryImpl, error) {
	if userStore == nil {
		return nil, errors.New("userStore cannot be nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("tokens cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &UserDirectoryImpl{
		userStore: userStore,
		hasher:    hasher,
		tokens:    tokens,
		db:        db,
		logger:    log.With("component", "user_directory"),
	}, nil
}

// ListUsers implements UserDirectory.
func (d *UserDirectoryImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := d.userStore.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Error("failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListUsersWithNotes implements UserDirectory.
func (d *UserDirectoryImpl) ListUsersWithNotes(ctx context.Context) ([]domain.User, error) {
	users, err := d.userStore.ListWithNotes(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Error("failed to list users with notes", "error", err)
		return nil, fmt.Errorf("failed to list users with notes: %w", err)
	}
	return users, nil
}

// GetUser implements UserDirectory.
func (d *UserDirectoryImpl) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := d.userStore.GetByID(ctx, id)
	if err != nil {
		d.logLookupFailure(ctx, "failed to retrieve user", id, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// GetUserWithNotes implements UserDirectory.
func (d *UserDirectoryImpl) GetUserWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	user, err := d.userStore.GetByIDWithNotes(ctx, id)
	if err != nil {
		d.logLookupFailure(ctx, "failed to retrieve user with notes", id, err)
		return nil, fmt.Errorf("failed to retrieve user with notes: %w", err)
	}
	return user, nil
}

// Register implements UserDirectory.
// The user is created in a transaction.
func (d *UserDirectoryImpl) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	hashed, err := d.hasher.Hash(reg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			log.Debug("registration rejected: password too long")
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		log.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user, err := domain.NewUser(reg.FirstName, reg.LastName, reg.Username, reg.Address, hashed)
	if err != nil {
		log.Debug("registration rejected by domain validation", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = store.RunUserTx(ctx, d.db, d.userStore, func(ctx context.Context, users store.UserStore) error {
		return users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			log.Debug("attempted to register existing username", "username", reg.Username)
		} else {
			log.Error("failed to save user", "error", err, "username", reg.Username)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Update implements UserDirectory.
// Following the pattern of getting the complete user first, then updating the profile fields.
func (d *UserDirectoryImpl) Update(ctx context.Context, update UserUpdate) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	err := store.RunUserTx(ctx, d.db, d.userStore, func(ctx context.Context, users store.UserStore) error {
		user, err := users.GetByID(ctx, update.ID)
		if err != nil {
			return err
		}

		user.FirstName = update.FirstName
		user.LastName = update.LastName
		user.Username = update.Username
		user.Address = update.Address
		if err := user.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}

		return users.Update(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			log.Debug("update of unknown user", "user_id", update.ID)
		case errors.Is(err, store.ErrUsernameExists), errors.Is(err, domain.ErrValidation):
			log.Debug("user update rejected", "user_id", update.ID, "error", err)
		default:
			log.Error("failed to update user", "user_id", update.ID, "error", err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", "user_id", update.ID)
	return nil
}

// Delete implements UserDirectory.
func (d *UserDirectoryImpl) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	err := store.RunUserTx(ctx, d.db, d.userStore, func(ctx context.Context, users store.UserStore) error {
		return users.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("delete of unknown user ignored", "user_id", id)
			return nil
		}
		log.Error("failed to delete user", "user_id", id, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted", "user_id", id)
	return nil
}

// Authenticate implements UserDirectory.
func (d *UserDirectoryImpl) Authenticate(ctx context.Context, username, password string) (*auth.Token, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	user, err := d.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("authentication failed: unknown username")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to look up user for authentication", "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := d.hasher.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Debug("authentication failed: wrong password", "user_id", user.ID)
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to compare password", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	token, err := d.tokens.GenerateToken(ctx, auth.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Address:  user.Address,
	})
	if err != nil {
		log.Error("failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	log.Info("user authenticated",
		"user_id", user.ID,
		"expires_in", time.Until(token.ExpiresAt).Round(time.Second).String())
	return token, nil
}

// ChangePassword implements UserDirectory.
// The check and the update share one transaction.
func (d *UserDirectoryImpl) ChangePassword(ctx context.Context, id int64, current, next string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	var changed bool
	err := store.RunUserTx(ctx, d.db, d.userStore, func(ctx context.Context, users store.UserStore) error {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := d.hasher.Compare(user.HashedPassword, current); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil
			}
			return err
		}

		hashed, err := d.hasher.Hash(next)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				return fmt.Errorf("%w: %w", domain.ErrValidation, err)
			}
			return err
		}
		// A concurrent change that committed first invalidates the current
		// password this request was checked against.
		err = users.UpdatePassword(ctx, id, user.HashedPassword, hashed)
		if errors.Is(err, store.ErrPasswordChanged) {
			return nil
		}
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			log.Debug("password change rejected", "user_id", id, "error", err)
		} else {
			log.Error("failed to change password", "user_id", id, "error", err)
		}
		return false, fmt.Errorf("failed to change password: %w", err)
	}

	if changed {
		log.Info("password changed", "user_id", id)
	} else {
		log.Debug("password change rejected: current password mismatch", "user_id", id)
	}
	return changed, nil
}

func (d *UserDirectoryImpl) logLookupFailure(ctx context.Context, msg string, id int64, err error) {
	log := logger.FromContextOrDefault(ctx, d.logger)
	if errors.Is(err, store.ErrUserNotFound) {
		log.Debug("user not found", "user_id", id)
		return
	}
	log.Error(msg, "user_id", id, "error", err)
}
