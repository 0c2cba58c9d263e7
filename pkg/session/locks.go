package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locks hands out per-session critical sections.
type Locks struct {
	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures Locks.
type Option func(*Locks)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(l *Locks) {
		l.locker = locker
	}
}

// WithTTL sets the distributed lock TTL.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locks) {
		l.ttl = ttl
	}
}

// WithLogger configures a logger for deferred release errors.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locks) {
		l.logger = logger
	}
}

// NewLocks creates an empty lock table.
func NewLocks(opts ...Option) *Locks {
	l := &Locks{
		locks:  make(map[string]*lockEntry),
		ttl:    DefaultLockTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (l *Locks) acquire(sessionID string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (l *Locks) release(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, sessionID)
	}
}

// Active returns the number of sessions currently holding or awaiting a lock.
func (l *Locks) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// WithLock executes fn while holding the lock for the session.
func (l *Locks) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := l.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		l.release(sessionID)
	}()

	if l.locker != nil {
		unlock, err := l.locker.Lock(ctx, sessionID, l.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				l.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
