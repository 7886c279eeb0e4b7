// Package lock serializes booking writes per shop. The check-then-commit
// section of every booking operation runs while holding the shop's lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotAcquired = errors.New("shop lock not acquired")

// Locker hands out one mutual-exclusion section per shop. The returned
// function releases the lock and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, shopID int32) (unlock func(), err error)
}

func Key(shopID int32) string {
	return fmt.Sprintf("shop:%d:bookings", shopID)
}

// Local is a Locker for a single process.
type Local struct {
	mu    sync.Mutex
	slots map[int32]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[int32]chan struct{})}
}

func (l *Local) slot(shopID int32) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[shopID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[shopID] = ch
	}
	return ch
}

func (l *Local) Lock(ctx context.Context, shopID int32) (func(), error) {
	ch := l.slot(shopID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, Key(shopID), ctx.Err())
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}
