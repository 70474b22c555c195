// Package rediscache implements store.UserCache on Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/phrazzld/notes-api/internal/domain"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notes:user:"

// NewClient creates and pings a Redis client with optional password auth.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// UserCache stores users as JSON under notes:user:{id}.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ store.UserCache = (*UserCache)(nil)

// NewUserCache wraps rdb. Entries expire after ttl; zero means no expiry.
func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

// cachedUser is the stored form. domain.User hides the password hash from
// JSON, but authentication reads go through the cache too.
type cachedUser struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Username       string    `json:"username"`
	Address        string    `json:"address"`
	HashedPassword string    `json:"hashedPassword"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func encode(u *domain.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		Address:        u.Address,
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	})
}

func decode(data []byte) (*domain.User, error) {
	var c cachedUser
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Username:       c.Username,
		Address:        c.Address,
		HashedPassword: c.HashedPassword,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}

// Get implements store.UserCache.
func (c *UserCache) Get(ctx context.Context, id int64) (*domain.User, bool, error) {
	data, err := c.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key(id), err)
	}

	u, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached user %d: %w", id, err)
	}
	return u, true, nil
}

// Set implements store.UserCache. Notes are never cached.
func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	data, err := encode(user)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", user.ID, err)
	}
	if err := c.rdb.Set(ctx, key(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key(user.ID), err)
	}
	return nil
}

// Invalidate implements store.UserCache.
func (c *UserCache) Invalidate(ctx context.Context, id int64) error {
	if err := c.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key(id), err)
	}
	return nil
}
