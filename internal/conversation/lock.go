package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when the caller's context ends while waiting for
// another continuation of the same conversation to finish.
var ErrBusy = errors.New("conversation busy")

// keyedMutex serialises work per conversation id. Entries are reference
// counted and dropped when the last waiter leaves.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*lockEntry)}
}

// Lock blocks until id is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (k *keyedMutex) Lock(ctx context.Context, id int) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				k.release(id, e)
			})
		}, nil
	case <-ctx.Done():
		k.release(id, e)
		return nil, fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
	}
}

func (k *keyedMutex) release(id int, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
}
