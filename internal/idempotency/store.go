// internal/idempotency/store.go
package idempotency

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/clock"
)

// DefaultTTL is how long a stored result shields its operation from
// re-execution.
const DefaultTTL = 24 * time.Hour

// Store holds operation results keyed by idempotency key. Results are
// opaque JSON blobs, returned verbatim for the life of the TTL and never
// re-validated against current arguments. Implementations are safe for
// concurrent use, but do not serialize execution of the wrapped side
// effect; that is the Operation caller's job.
type Store interface {
	// Get returns the stored result for key, with found=false for missing
	// or expired entries. Expired entries are removed lazily on access.
	Get(ctx context.Context, key string) (result json.RawMessage, found bool, err error)
	// Set stores the result under key, overwriting any prior value and
	// stamping it with the current time.
	Set(ctx context.Context, key string, result json.RawMessage) error
	// Delete removes key explicitly.
	Delete(ctx context.Context, key string) error
	// SweepExpired removes all entries past their TTL and reports how many
	// were removed. Intended for periodic background invocation.
	SweepExpired(ctx context.Context) (int, error)
}

type memoryEntry struct {
	storedAt time.Time
	result   json.RawMessage
}

// MemoryStore is the in-process Store for single-instance deployments
// and tests. Multi-process deployments need the Redis-backed store so
// retries land on shared state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   clock.Clock
	logger  *zap.Logger
}

// NewMemoryStore creates an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, clock.New(), logger)
}

// NewMemoryStoreWithClock creates a store with an explicit clock so TTL
// behavior can be tested deterministically.
func NewMemoryStoreWithClock(ttl time.Duration, clk clock.Clock, logger *zap.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clk,
		logger:  logger,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	if s.clock.Now().Sub(entry.storedAt) > s.ttl {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if current, ok := s.entries[key]; ok && s.clock.Now().Sub(current.storedAt) > s.ttl {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	s.logger.Debug("idempotency hit", zap.String("key", key))
	return entry.result, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		storedAt: s.clock.Now(),
		result:   result,
	}
	s.logger.Debug("idempotency key stored", zap.String("key", key))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.ttl)
	removed := 0
	for key, entry := range s.entries {
		if entry.storedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("swept expired idempotency keys", zap.Int("removed", removed))
	}
	return removed, nil
}

// Size returns the number of entries in the store, for monitoring.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
