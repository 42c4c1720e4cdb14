package aggregates

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/observability"
)

// PairLocker serializes writes to one (user, course) pair. The redis client
// package provides a cross-process implementation.
type PairLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
	Backend() string
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

type localPairLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocalPairLocker returns an in-process keyed mutex. Entries are dropped
// once nobody holds or waits on them.
func NewLocalPairLocker() PairLocker {
	return &localPairLocker{entries: map[string]*localEntry{}}
}

func (l *localPairLocker) Backend() string { return "local" }

func (l *localPairLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e := l.entries[key]
	if e == nil {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.drop(key, e)
		})
	}, nil
}

func (l *localPairLocker) drop(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func pairKey(userID, courseID uuid.UUID) string {
	return "enrollment:" + userID.String() + ":" + courseID.String()
}

// lockPair acquires the pair lock. A nil locker means no locking.
func lockPair(ctx context.Context, op string, locker PairLocker, metrics *observability.Metrics, userID, courseID uuid.UUID) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	start := time.Now()
	unlock, err := locker.Lock(ctx, pairKey(userID, courseID))
	metrics.ObservePairLockWait(locker.Backend(), time.Since(start))
	if err != nil {
		return nil, MapError(op, RetryableError("acquire enrollment lock: "+err.Error()))
	}
	return unlock, nil
}
