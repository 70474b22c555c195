package store

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/platform/logger"
)

// UserCache is a read-through cache for single users keyed by ID.
// Get returns (nil, false, nil) on a miss.
type UserCache interface {
	Get(ctx context.Context, id int64) (*domain.User, bool, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, id int64) error
}

// CachingUserStore decorates a UserStore with a UserCache for GetByID.
// Every write that touches a user invalidates its entry. Cache failures
// are logged and never surface to callers.
//
// A store bound to a transaction with WithTx reads past the cache and
// queues its invalidations; RunUserTx flushes them once the transaction
// has committed, so no reader can re-cache a row that is about to change.
type CachingUserStore struct {
	inner   UserStore
	cache   UserCache
	logger  *slog.Logger
	pending *pendingInvalidations
}

// pendingInvalidations collects the user IDs written inside a transaction.
type pendingInvalidations struct {
	mu  sync.Mutex
	ids []int64
}

// committer is implemented by transaction-bound stores with work to do
// after a successful commit.
type committer interface {
	afterCommit(ctx context.Context)
}

// Ensure CachingUserStore implements UserStore interface
var _ UserStore = (*CachingUserStore)(nil)

// NewCachingUserStore wraps inner with cache.
func NewCachingUserStore(inner UserStore, cache UserCache, log *slog.Logger) *CachingUserStore {
	if log == nil {
		log = slog.Default()
	}
	return &CachingUserStore{
		inner:  inner,
		cache:  cache,
		logger: log.With(slog.String("component", "user_cache")),
	}
}

// List implements UserStore.List
func (s *CachingUserStore) List(ctx context.Context) ([]domain.User, error) {
	return s.inner.List(ctx)
}

// ListWithNotes implements UserStore.ListWithNotes
func (s *CachingUserStore) ListWithNotes(ctx context.Context) ([]domain.User, error) {
	return s.inner.ListWithNotes(ctx)
}

// GetByID implements UserStore.GetByID, consulting the cache first.
func (s *CachingUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if s.pending != nil {
		return s.inner.GetByID(ctx, id)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Warn("user cache read failed", slog.Int64("user_id", id), slog.String("error", err.Error()))
	} else if ok {
		log.Debug("user cache hit", slog.Int64("user_id", id))
		return cached, nil
	}

	user, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, user); err != nil {
		log.Warn("user cache write failed", slog.Int64("user_id", id), slog.String("error", err.Error()))
	}
	return user, nil
}

// GetByIDWithNotes implements UserStore.GetByIDWithNotes
func (s *CachingUserStore) GetByIDWithNotes(ctx context.Context, id int64) (*domain.User, error) {
	return s.inner.GetByIDWithNotes(ctx, id)
}

// GetByUsername implements UserStore.GetByUsername
func (s *CachingUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.inner.GetByUsername(ctx, username)
}

// Create implements UserStore.Create
func (s *CachingUserStore) Create(ctx context.Context, user *domain.User) error {
	return s.inner.Create(ctx, user)
}

// Update implements UserStore.Update
func (s *CachingUserStore) Update(ctx context.Context, user *domain.User) error {
	defer s.invalidate(ctx, user.ID)
	return s.inner.Update(ctx, user)
}

// UpdatePassword implements UserStore.UpdatePassword
func (s *CachingUserStore) UpdatePassword(ctx context.Context, id int64, currentHash, newHash string) error {
	defer s.invalidate(ctx, id)
	return s.inner.UpdatePassword(ctx, id, currentHash, newHash)
}

// Delete implements UserStore.Delete
func (s *CachingUserStore) Delete(ctx context.Context, id int64) error {
	defer s.invalidate(ctx, id)
	return s.inner.Delete(ctx, id)
}

// WithTx implements UserStore.WithTx
func (s *CachingUserStore) WithTx(tx *sql.Tx) UserStore {
	return &CachingUserStore{
		inner:   s.inner.WithTx(tx),
		cache:   s.cache,
		logger:  s.logger,
		pending: &pendingInvalidations{},
	}
}

// afterCommit invalidates every user written through the transaction.
func (s *CachingUserStore) afterCommit(ctx context.Context) {
	if s.pending == nil {
		return
	}
	s.pending.mu.Lock()
	ids := s.pending.ids
	s.pending.ids = nil
	s.pending.mu.Unlock()

	for _, id := range ids {
		s.evict(ctx, id)
	}
}

func (s *CachingUserStore) invalidate(ctx context.Context, id int64) {
	if s.pending != nil {
		s.pending.mu.Lock()
		s.pending.ids = append(s.pending.ids, id)
		s.pending.mu.Unlock()
		return
	}
	s.evict(ctx, id)
}

func (s *CachingUserStore) evict(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("user cache invalidation failed",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()))
	}
}
