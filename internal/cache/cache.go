package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "offerwatch:product:sku:"

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 120 * time.Second

// Store is a cache-aside view store keyed by SKU. Redis is the primary
// backend; on any Redis error the call degrades transparently to an
// in-process map with the same TTL semantics. Callers never see backend
// errors, only presence/absence plus an explicit fallback flag.
type Store struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger

	mu  sync.Mutex
	mem map[string]memoryEntry
	now func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// New constructs a Store. A nil client pins the store to the in-process
// fallback, which keeps local development working without Redis.
func New(rdb redis.UniversalClient, defaultTTL time.Duration, logger zerolog.Logger) *Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store{
		rdb:    rdb,
		ttl:    defaultTTL,
		logger: logger.With().Str("component", "cache").Logger(),
		mem:    make(map[string]memoryEntry),
		now:    time.Now,
	}
}

// TTL returns the store's default entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached payload for a SKU. fallback reports whether the
// in-process store served the request instead of Redis.
func (s *Store) Get(ctx context.Context, sku string) (payload []byte, ok bool, fallback bool) {
	key := keyPrefix + sku

	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			return raw, true, false
		case errors.Is(err, redis.Nil):
			return nil, false, false
		default:
			s.logger.Warn().Err(err).Str("sku", sku).Msg("redis GET failed, using memory fallback")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, present := s.mem[key]
	if !present {
		return nil, false, true
	}
	if s.now().After(entry.expiresAt) {
		delete(s.mem, key)
		return nil, false, true
	}
	return entry.payload, true, true
}

// Set stores a payload under the SKU with the given TTL (default TTL when
// non-positive). Returns whether the fallback store took the write.
func (s *Store) Set(ctx context.Context, sku string, payload []byte, ttl time.Duration) (fallback bool) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	key := keyPrefix + sku

	if s.rdb != nil {
		err := s.rdb.Set(ctx, key, payload, ttl).Err()
		if err == nil {
			return false
		}
		s.logger.Warn().Err(err).Str("sku", sku).Msg("redis SET failed, writing to memory fallback")
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = memoryEntry{payload: buf, expiresAt: s.now().Add(ttl)}
	return true
}

// Delete invalidates the cached view for a SKU in both backends.
func (s *Store) Delete(ctx context.Context, sku string) (fallback bool) {
	key := keyPrefix + sku

	fallback = true
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, key).Err(); err == nil {
			fallback = false
		} else {
			s.logger.Warn().Err(err).Str("sku", sku).Msg("redis DEL failed, removing from memory fallback")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mem, key)
	return fallback
}
