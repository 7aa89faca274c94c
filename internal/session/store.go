package session

import (
	"sync"
	"time"
)

// Store is the keyed set of live calls.
type Store struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

func NewStore() *Store {
	return &Store{calls: map[string]*Call{}}
}

func (s *Store) Put(c *Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[c.CallSid] = c
}

func (s *Store) Get(callSid string) (*Call, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calls[callSid]
	return c, ok
}

// Remove takes a call out of the store, returning it so the finalizer can
// work from state no new writer can reach.
func (s *Store) Remove(callSid string) (*Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[callSid]
	if ok {
		delete(s.calls, callSid)
	}
	return c, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// Snapshots returns a point-in-time view of every live call, sorted by
// nothing in particular; callers sort if they care.
func (s *Store) Snapshots() []Snapshot {
	s.mu.RLock()
	calls := make([]*Call, 0, len(s.calls))
	for _, c := range s.calls {
		calls = append(calls, c)
	}
	s.mu.RUnlock()

	out := make([]Snapshot, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Snapshot())
	}
	return out
}

// Reap removes calls older than maxAge and returns them. The reaper marks
// them failed so finalization sends alerts instead of follow-ups.
func (s *Store) Reap(now time.Time, maxAge time.Duration) []*Call {
	s.mu.Lock()
	var stale []*Call
	for sid, c := range s.calls {
		if now.Sub(c.StartedAt) > maxAge {
			stale = append(stale, c)
			delete(s.calls, sid)
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		c.MarkFailed("exceeded max call duration")
	}
	return stale
}
