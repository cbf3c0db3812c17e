package turn

import "sync"

// sessionLocks serializes turns per session_id.
//
// At most one in-flight turn per session: the lock is held across
// load -> decide -> persist, so a confirm and a skip racing on the same
// session can never both advance the index. Locks for different sessions
// are independent.
//
// Entries are never evicted; the map is bounded by the number of distinct
// sessions this process has served, which is small for the intended
// deployment. Revisit if sessions ever become unbounded per process.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the given session and returns the unlock function.
func (l *sessionLocks) acquire(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
