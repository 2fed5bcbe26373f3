package booking

import "sync"

// keyedMutex serializes the check-then-act sections per resource key
// (activity id, infrastructure id). Without it two concurrent registrations
// can both observe a free seat and both commit.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

func (k *keyedMutex) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}
