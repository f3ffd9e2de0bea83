// Package state implements the conversion state store: four fields behind
// explicit setters, with coalesced change delivery to subscribers.
//
// Each setter is a no-op when the new value equals the current one. Otherwise
// it writes the field, marks the store dirty, and wakes a single flusher
// goroutine. Any number of synchronous sets produce exactly one flush. The
// dirty flag is cleared before the snapshot is delivered, so a set that lands
// during delivery schedules a fresh flush.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/tablesnap/backend/internal/models"
)

// Snapshot is a consistent copy of all state fields at one flush.
type Snapshot struct {
	File    *models.FileInfo
	Loading bool
	Result  string
	Err     string
}

// Store holds the state of one conversion session.
//
// There is no cross-field invariant enforced here: callers clear dependent
// fields themselves (a new file clears the result, a new error replaces the
// old result, and so on).
type Store struct {
	mu      sync.Mutex
	snap    Snapshot
	dirty   bool
	subs    map[int]chan Snapshot
	nextSub int

	wake chan struct{}
	done chan struct{}

	flushes atomic.Int64
}

// NewStore creates a Store and starts its flusher goroutine. Callers must
// Close the store when the session is discarded.
func NewStore() *Store {
	s := &Store{
		subs: make(map[int]chan Snapshot),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// SetFile sets the selected file. Equality is pointer identity: re-selecting
// the exact same FileInfo does not schedule a flush.
func (s *Store) SetFile(f *models.FileInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.File == f {
		return false
	}
	s.snap.File = f
	s.scheduleLocked()
	return true
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Loading == v {
		return false
	}
	s.snap.Loading = v
	s.scheduleLocked()
	return true
}

// SetResult sets the CSV result text.
func (s *Store) SetResult(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Result == v {
		return false
	}
	s.snap.Result = v
	s.scheduleLocked()
	return true
}

// SetError sets the user-facing error text.
func (s *Store) SetError(v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Err == v {
		return false
	}
	s.snap.Err = v
	s.scheduleLocked()
	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers a coalesced listener. The channel has capacity one and
// delivery is latest-wins: a slow consumer sees the newest snapshot, never a
// backlog. The returned func cancels the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

// Flushes returns the number of flushes delivered so far.
func (s *Store) Flushes() int64 {
	return s.flushes.Load()
}

// Close stops the flusher goroutine. Pending sets may go undelivered.
func (s *Store) Close() {
	close(s.done)
}

// scheduleLocked marks the store dirty and wakes the flusher once per batch.
// Caller must hold s.mu.
func (s *Store) scheduleLocked() {
	if s.dirty {
		return
	}
	s.dirty = true
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) flushLoop() {
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.done:
			return
		}
	}
}

func (s *Store) flush() {
	s.mu.Lock()
	// Clear before delivering so a set arriving mid-delivery reschedules.
	s.dirty = false
	snap := s.snap
	subs := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	s.flushes.Add(1)
	for _, ch := range subs {
		// Latest wins: drop an undelivered stale snapshot first.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
