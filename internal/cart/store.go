package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartTTL keeps abandoned carts around across sessions before they
// expire on their own.
const CartTTL = 30 * 24 * time.Hour

// Store persists carts between requests. Get returns a fresh empty
// cart when none exists for the id.
type Store interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Put(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: CartTTL}
}

func cartKey(id string) string { return "cart:" + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*Cart, error) {
	data, err := s.rdb.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(id), nil
		}
		return nil, fmt.Errorf("cart get: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cart decode: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Put(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, cartKey(c.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cart put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("cart delete: %w", err)
	}
	return nil
}

// MemoryStore backs local development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[id]
	if !ok {
		return New(id), nil
	}
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp, nil
}

func (s *MemoryStore) Put(ctx context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	s.carts[c.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}
