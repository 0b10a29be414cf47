package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pgledger/backend/internal/domain/shared"
)

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// InMemoryLocker is a keyed mutex for a single process. The TTL is ignored;
// a lock is held until released.
type InMemoryLocker struct {
	mu      sync.Mutex
	locks   map[string]*lockEntry
	maxWait time.Duration
}

// NewInMemoryLocker creates an in-process locker. Waiters give up after
// maxWait, like RedisLocker.
func NewInMemoryLocker(maxWait time.Duration) *InMemoryLocker {
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &InMemoryLocker{locks: make(map[string]*lockEntry), maxWait: maxWait}
}

// Acquire blocks until key is free, ctx is done or maxWait elapses
func (l *InMemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-waitCtx.Done():
		l.drop(key, e)
		return nil, shared.ErrLockNotAcquired
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.ch
			l.drop(key, e)
		})
		return nil
	}, nil
}

func (l *InMemoryLocker) drop(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Size returns the number of keys held or waited on
func (l *InMemoryLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ shared.Locker = (*InMemoryLocker)(nil)
