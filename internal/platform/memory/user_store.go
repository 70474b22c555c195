package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
)

// UserStore keeps users and their notes in memory.
type UserStore struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	notes      map[int64][]domain.Note
	nextUserID int64
	nextNoteID int64
	logger     *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty UserStore.
func NewUserStore(logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		users:      make(map[int64]domain.User),
		notes:      make(map[int64][]domain.Note),
		nextUserID: 1,
		nextNoteID: 1,
		logger:     logger.With("component", "memory_user_store"),
	}
}

// List implements store.UserStore.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedUsers(false), nil
}

// ListWithNotes implements store.UserStore.
func (s *UserStore) ListWithNotes(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedUsers(true), nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// GetByIDWithNotes implements store.UserStore.
func (s *UserStore) GetByIDWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u.Notes = s.notesOf(id)
	return &u, nil
}

// GetByUsername implements store.UserStore.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Create implements store.UserStore.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(user.Username, 0) {
		return store.ErrUsernameExists
	}

	now := time.Now().UTC()
	user.ID = s.nextUserID
	s.nextUserID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	stored.Notes = nil
	s.users[user.ID] = stored

	s.logger.DebugContext(ctx, "user created", "user_id", user.ID)
	return nil
}

// Update implements store.UserStore.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if s.usernameTaken(user.Username, user.ID) {
		return store.ErrUsernameExists
	}

	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Username = user.Username
	existing.Address = user.Address
	existing.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = existing

	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// UpdatePassword implements store.UserStore.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, currentHash, newHash string) error {
	if newHash == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if existing.HashedPassword != currentHash {
		return store.ErrPasswordChanged
	}
	existing.HashedPassword = newHash
	existing.UpdatedAt = time.Now().UTC()
	s.users[id] = existing
	return nil
}

// Delete implements store.UserStore.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	delete(s.notes, id)

	s.logger.DebugContext(ctx, "user deleted", "user_id", id)
	return nil
}

// WithTx returns the store itself; the memory store has no transactions.
func (s *UserStore) WithTx(_ *sql.Tx) store.UserStore {
	return s
}

// sortedUsers must be called with at least a read lock held.
func (s *UserStore) sortedUsers(withNotes bool) []domain.User {
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if withNotes {
			u.Notes = s.notesOf(u.ID)
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *UserStore) notesOf(userID int64) []domain.Note {
	notes := make([]domain.Note, len(s.notes[userID]))
	copy(notes, s.notes[userID])
	return notes
}

func (s *UserStore) usernameTaken(username string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}
