package service

import "sync"

// dateLocks serializes mutations per serving date. The quota and capacity
// rules are check-then-append against the store, so both steps must run
// under the same per-date critical section.
type dateLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newDateLocks() *dateLocks {
	return &dateLocks{m: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a date, creating it on first use. Locks are
// never released from the map; the set of dates per deployment is tiny.
func (l *dateLocks) get(dateISO string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.m[dateISO]
	if !ok {
		lk = &sync.Mutex{}
		l.m[dateISO] = lk
	}
	return lk
}
