package conversation

import "sync"

// sessionLocks serializes message handling per session key so two concurrent
// messages for the same session cannot interleave state transitions, while
// distinct sessions proceed in parallel. Locks are never removed; the map
// grows with the number of distinct sessions seen by this process, which the
// session TTL keeps bounded in practice.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) lock(id string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m
}
