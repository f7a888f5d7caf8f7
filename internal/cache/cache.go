// Package cache provides a concurrency-safe candle cache with per-interval
// TTLs and interchangeable memory and Redis backends.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chart-advisor/internal/models"
)

// Store is the candle cache boundary. Implementations must be safe for
// concurrent use. Backend failures surface as misses, never as errors.
type Store interface {
	Get(ctx context.Context, key string) ([]models.Candle, bool)
	Set(ctx context.Context, key string, candles []models.Candle, ttl time.Duration)
}

// Key builds the cache key for a symbol/interval/limit combination.
func Key(symbol string, interval models.Interval, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, interval, limit)
}

// TTLFor returns how long cached candles stay fresh for an interval.
// Short timeframes expire quickly; daily and weekly data lives for hours.
func TTLFor(interval models.Interval) time.Duration {
	switch interval {
	case models.Interval1m:
		return 30 * time.Second
	case models.Interval5m:
		return 2 * time.Minute
	case models.Interval15m:
		return 5 * time.Minute
	case models.Interval30m:
		return 10 * time.Minute
	case models.Interval1h:
		return 20 * time.Minute
	case models.Interval4h:
		return time.Hour
	case models.Interval1d:
		return 12 * time.Hour
	case models.Interval1w:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

type memoryEntry struct {
	candles   []models.Candle
	expiresAt time.Time
}

// MemoryStore is an in-process TTL cache.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns the cached candles when present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]models.Candle, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.candles, true
}

// Set stores candles under the key for the given TTL.
func (s *MemoryStore) Set(_ context.Context, key string, candles []models.Candle, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		candles:   candles,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
}

// Prune removes expired entries. Callers decide how often to run it.
func (s *MemoryStore) Prune() {
	now := time.Now()
	s.mu.Lock()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}
