package service

import (
	"sync"

	"github.com/google/uuid"
)

// storeLocks hands out one mutex per store so that concurrent applies on
// the same store serialize for the whole read-modify-write. Stores are few
// and long-lived, so entries are never evicted.
type storeLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newStoreLocks() *storeLocks {
	return &storeLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock blocks until the store's mutex is held and returns the unlock func.
func (l *storeLocks) Lock(storeID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[storeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[storeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
