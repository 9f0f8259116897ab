package wstate

import "sync"

// Store is the Brain's single lock-guarded handle on the world-state. Every
// mutation — whether from a dispatcher frame or from a PTY reader thread's
// parsed OSC events — goes through Store so that the ordering guarantees of
// spec §5 hold: all operations are serialized by one lock, and nothing holds
// the lock across a blocking read or write.
type Store struct {
	mu sync.Mutex
	w  *World
}

// NewStore wraps a freshly constructed World.
func NewStore() *Store {
	return &Store{w: NewWorld()}
}

// Do runs fn with the world-state lock held and returns whatever fn returns.
// fn must never block (no PTY I/O, no socket I/O) — it may only read and
// mutate the World it is given.
func Do[T any](s *Store, fn func(*World) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.w)
}

// View is Do's read-only sibling, kept separate mostly for readability at
// call sites (snapshotting never mutates).
func View[T any](s *Store, fn func(*World) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.w)
}
