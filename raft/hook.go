package raft

// Hook is the only extension point: a process-wide capability object that
// mediates between the protocol and application state, per spec.md §6. The
// protocol is otherwise entirely agnostic to what a Term's Content means.
type Hook interface {
	// UpdateNode decides whether a new joiner is admitted.
	UpdateNode() bool

	// PreAppendTerm returns the highest id the follower already has up to
	// (inclusive). The tri-state contract must be preserved exactly:
	//   ok == true,  idx >= term.ID -> accept
	//   ok == true,  idx <  term.ID -> follower is missing earlier entries
	//   ok == false                -> fatal hook contract violation
	PreAppendTerm(term Term) (idx uint64, ok bool)

	// AppendTerm persists term to application state.
	AppendTerm(term Term) bool

	// CommitTerm applies term to application state.
	CommitTerm(term Term) bool

	// PrepareTerm produces content for the next leader-generated entry.
	PrepareTerm() string

	// RetrieveTerm retrieves a single evicted entry, if retrievable.
	RetrieveTerm(id uint64) (Term, bool)

	// RetrieveTerms retrieves a contiguous range of evicted entries.
	RetrieveTerms(from, to uint64) ([]Term, bool)

	// SwitchStatus observes a role transition.
	SwitchStatus(role Role)
}

// NextIndex is the leader's per-peer cursor into its own log: the id of the
// next entry to send. Validated means the peer has confirmed it; Pending
// means it is a best guess awaiting confirmation (spec.md Glossary).
type NextIndex struct {
	Index     uint64
	Validated bool
}

// Value returns the cursor value regardless of validation state.
func (n NextIndex) Value() uint64 { return n.Index }
