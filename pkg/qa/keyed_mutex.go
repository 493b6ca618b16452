package qa

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes work per session without a global lock: appends for
// one session queue up behind each other while unrelated sessions proceed.
// Entries are reference-counted and removed when the last holder releases,
// so idle sessions cost nothing.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

func (k *keyedMutex) Lock(key uuid.UUID) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("qa: unlock of unheld session lock")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
