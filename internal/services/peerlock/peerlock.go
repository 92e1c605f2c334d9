// Package peerlock serializes work per peer. Session state is a
// single-writer resource: two goroutines encrypting or decrypting against
// the same peer record would fork the ratchet.
package peerlock

import "sync"

// Map holds one mutex per peer, created on first use. The zero value is
// ready to use.
type Map struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for peer, creating it if needed, and returns the
// unlock function.
func (m *Map) Lock(peer string) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}
	l, ok := m.locks[peer]
	if !ok {
		l = &sync.Mutex{}
		m.locks[peer] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
