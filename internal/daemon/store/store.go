// Package store holds the daemon's published index snapshot. Snapshots are
// immutable; the store swaps them atomically and fans updates out to
// subscribers.
package store

import (
	"sync"

	"github.com/grovetools/sessiond/internal/index"
)

// Store is the thread-safe snapshot holder with pub/sub for real-time
// updates.
type Store struct {
	mu          sync.RWMutex
	snapshot    *index.Snapshot
	subscribers map[chan Update]struct{}
}

// New creates a Store seeded with an empty snapshot so readers never see
// nil before the first scan completes.
func New() *Store {
	return &Store{
		snapshot:    index.Empty(),
		subscribers: make(map[chan Update]struct{}),
	}
}

// Snapshot returns the current index generation. Callers may hold the
// returned snapshot indefinitely; it never mutates.
func (s *Store) Snapshot() *index.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// ApplyUpdate swaps in a new snapshot when the update carries one, then
// notifies subscribers. Discontinuity updates broadcast without changing
// the snapshot.
func (s *Store) ApplyUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Type == UpdateSnapshot {
		if snap, ok := u.Payload.(*index.Snapshot); ok {
			s.snapshot = snap
		}
	}

	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send so a slow client cannot stall the daemon.
		}
	}
}

// Subscribe creates a buffered subscription channel for updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, ch)
	close(ch)
}
