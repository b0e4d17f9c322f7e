package raft

import (
	"context"
	"sync"
)

// Role is the node's current behavior in the protocol.
type Role int

const (
	ConnectionPending Role = iota
	Follower
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case ConnectionPending:
		return "ConnectionPending"
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// transitionTable lists every permitted (from, to) pair per spec.md §4.1.
var transitionTable = map[Role]map[Role]bool{
	ConnectionPending: {Follower: true, Candidate: true},
	Follower:          {Candidate: true},
	Candidate:         {Leader: true, Follower: true},
	Leader:            {Follower: true, Candidate: true},
}

// StatusCell holds the role + known-leader pair and supports wait-for-change.
// It is the Go counterpart of the original's phantom-typed Status<T>: a
// single guarded value with a centralized transition table in place of
// compile-time state typing (spec.md §9 Design Notes).
type StatusCell struct {
	mu          sync.RWMutex
	role        Role
	knownLeader string
	changed     chan struct{}
}

// NewStatusCell returns a cell initialized to ConnectionPending, no known
// leader.
func NewStatusCell() *StatusCell {
	return &StatusCell{role: ConnectionPending, changed: make(chan struct{})}
}

// Role returns the current role.
func (s *StatusCell) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// KnownLeader returns the last known leader address, if any.
func (s *StatusCell) KnownLeader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.knownLeader
}

// Is reports whether the current role equals role.
func (s *StatusCell) Is(role Role) bool {
	return s.Role() == role
}

// Transition moves the cell to newRole, recording knownLeader when non-empty.
// A transition to the current role is always permitted (it only updates
// knownLeader). Any other transition not in transitionTable returns
// ErrWrongStatus and leaves the cell unchanged. Every successful transition
// wakes all waiters.
func (s *StatusCell) Transition(newRole Role, knownLeader string) error {
	s.mu.Lock()
	if s.role != newRole {
		if !transitionTable[s.role][newRole] {
			s.mu.Unlock()
			return fatal(ErrWrongStatus, s.role.String()+" -> "+newRole.String())
		}
	}
	s.role = newRole
	if knownLeader != "" {
		s.knownLeader = knownLeader
	}
	old := s.changed
	s.changed = make(chan struct{})
	s.mu.Unlock()
	close(old)
	return nil
}

// Wait blocks until the role changes or ctx is done, whichever comes first.
func (s *StatusCell) Wait(ctx context.Context) error {
	s.mu.RLock()
	ch := s.changed
	s.mu.RUnlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
