// Package vrrpstate holds the in-memory VRRP session state store.
//
// The store is the sole authority for "what did we last observe?" for every
// bound VRRP session. It is written by the dispatcher (on each event) and by
// the telemetry disconnect handler (bulk reset), and read by the reconciler.
package vrrpstate

import "sync"

// State is the two-valued VRRP session state tracked by this agent.
type State uint8

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// Session is the unique key for a VRRP group: an XR interface name paired
// with a VRID. Two events referring to the same pair concern the same
// session regardless of any other field.
type Session struct {
	Interface string
	VRID      uint8
}

func (s Session) String() string {
	return "<xr_interface=" + s.Interface + ",vrid=" + itoa(s.VRID) + ">"
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Store is a concurrency-safe map of Session to State. Every key present in
// Store also exists in the bindings map owned by the dispatcher/reconciler,
// and vice versa; Init establishes that invariant.
type Store struct {
	mu     sync.RWMutex
	states map[Session]State
}

// New creates an empty store. Call Init before use.
func New() *Store {
	return &Store{states: make(map[Session]State)}
}

// Init populates the store with every given session set to Inactive. It is
// intended to be called once, at start-up, before any other method.
func (s *Store) Init(sessions []Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		s.states[sess] = Inactive
	}
}

// Get returns the current state for a session and whether it is bound.
func (s *Store) Get(sess Session) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.states[sess]
	return v, ok
}

// Set unconditionally records the new state for a bound session.
func (s *Store) Set(sess Session, v State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sess] = v
}

// Snapshot returns the current set of bound sessions. Callers should re-read
// each session's value via Get rather than relying on values observed here,
// since writers may mutate values (never keys) concurrently.
func (s *Store) Snapshot() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.states))
	for sess := range s.states {
		out = append(out, sess)
	}
	return out
}

// ResetAll marks every bound session Inactive. Used by the telemetry
// disconnect handler when the peer connection is lost.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.states {
		s.states[sess] = Inactive
	}
}

// All returns a point-in-time copy of the full session→state map, used by
// the status API.
func (s *Store) All() map[Session]State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Session]State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}
