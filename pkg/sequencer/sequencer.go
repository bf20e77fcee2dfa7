package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/ripple/internal/logging"
	"github.com/aretw0/ripple/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Sequencer serializes work per saga ID, ensuring that two events targeting
// the same saga are never processed concurrently by this process. It uses
// Reference Counting to garbage collect unused locks.
//
// With a DistributedLocker configured, serialization extends across reactor
// replicas; without one, cross-instance ordering is the transport's problem
// (queue-group routing by saga ID).
type Sequencer struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	ttl    time.Duration           // TTL for distributed locks
	logger *slog.Logger            // Logger for deferred errors
}

// Option configures the Sequencer.
type Option func(*Sequencer)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Sequencer) {
		s.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Sequencer) {
		s.ttl = ttl
	}
}

// WithLogger configures a logger for the Sequencer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// New creates a Sequencer.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		locks:  make(map[string]*lockEntry),
		ttl:    30 * time.Second,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (s *Sequencer) acquire(key string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[key]
	if !exists {
		entry = &lockEntry{}
		s.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (s *Sequencer) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[key]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, key)
	}
}

// WithLock executes fn while holding the lock for the saga ID.
func (s *Sequencer) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := s.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(key)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, key, s.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"saga_id", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
