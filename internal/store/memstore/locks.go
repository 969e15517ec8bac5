package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cleared-dev/ledgerd/internal/model"
)

// lockTable hands out one exclusive lock per account number. Each lock is a
// one-slot channel so waiters can give up on a timer or a context.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (l *lockTable) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// acquire blocks until the lock on key is held, timeout elapses, or ctx ends.
func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := l.slot(key)

	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: account %s after %s", model.ErrLockTimeout, key, timeout)
	case <-ctx.Done():
		return fmt.Errorf("waiting for lock on account %s: %w", key, ctx.Err())
	}
}

func (l *lockTable) release(key string) {
	<-l.slot(key)
}
