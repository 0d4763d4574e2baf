package service

import (
	"fmt"
	"sync"
)

// keyedMutex serializes work per key. Result processing locks the
// participation id (and the exercise id for the shared test-case registry) so
// concurrent notifications for the same participation cannot race the
// read-modify-write between dedup check and result creation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLockEntry
}

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLockEntry)}
}

// Lock acquires the mutex for the key and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLockEntry{}
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

func participationLockKey(participationID uint) string {
	return fmt.Sprintf("participation:%d", participationID)
}

func exerciseLockKey(exerciseID uint) string {
	return fmt.Sprintf("exercise:%d", exerciseID)
}
