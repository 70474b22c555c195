package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/phrazzld/notes-api/internal/domain"
)

// nopUserStore is a minimal UserStore backed by a map, used to exercise the
// decorators and transaction helpers in this package.
type nopUserStore struct {
	mu      sync.Mutex
	users   map[int64]domain.User
	getByID int
	tx      *sql.Tx
}

func newNopUserStore(users ...domain.User) *nopUserStore {
	s := &nopUserStore{users: make(map[int64]domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *nopUserStore) List(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (s *nopUserStore) ListWithNotes(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (s *nopUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getByID++
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *nopUserStore) GetByIDWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	return s.GetByID(ctx, id)
}

func (s *nopUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, ErrUserNotFound
}

func (s *nopUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (s *nopUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *nopUserStore) UpdatePassword(ctx context.Context, id int64, currentHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if u.HashedPassword != currentHash {
		return ErrPasswordChanged
	}
	u.HashedPassword = newHash
	s.users[id] = u
	return nil
}

func (s *nopUserStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *nopUserStore) WithTx(tx *sql.Tx) UserStore {
	return &nopUserStore{users: s.users, tx: tx}
}

// mapCache is an in-process UserCache that can be told to fail.
type mapCache struct {
	mu          sync.Mutex
	entries     map[int64]domain.User
	failReads   bool
	invalidated []int64
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[int64]domain.User)}
}

func (c *mapCache) Get(ctx context.Context, id int64) (*domain.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failReads {
		return nil, false, errors.New("cache unavailable")
	}
	u, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (c *mapCache) Set(ctx context.Context, user *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[user.ID] = *user
	return nil
}

func (c *mapCache) Invalidate(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}
