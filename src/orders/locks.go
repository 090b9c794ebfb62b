package orders

import (
	"sync"

	"github.com/google/uuid"
)

// tradeLocks hands out one mutex per trade. Entries are dropped once no
// goroutine holds or waits for them.
type tradeLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tradeLock
}

type tradeLock struct {
	mu   sync.Mutex
	refs int
}

func newTradeLocks() *tradeLocks {
	return &tradeLocks{locks: make(map[uuid.UUID]*tradeLock)}
}

// lock blocks until the trade is free and returns its unlock function.
func (l *tradeLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &tradeLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *tradeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
