package service

import (
	"fmt"
	"sync"
)

// keyedMutex serializes operations per key. The engine locks
// "instance:<id>" around decide/recall/reassign and
// "target:<tenant>/<type>/<record>" around submit, so the read-modify-write
// sequence of step advancement runs exactly once per step while unrelated
// instances proceed in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its unlock function. Entries
// are refcounted and removed when the last holder unlocks.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func instanceKey(id int64) string {
	return fmt.Sprintf("instance:%d", id)
}

func targetKey(tenantID, objectType, recordID string) string {
	return fmt.Sprintf("target:%s/%s/%s", tenantID, objectType, recordID)
}
