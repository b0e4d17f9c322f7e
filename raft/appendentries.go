package raft

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// ReceiveAppendEntries implements the follower receive-path of spec.md
// §4.3 (Raft §5.3). It is invoked by the transport server for every
// inbound /append_term request, regardless of the node's current role —
// a Candidate or Leader observing a legitimate AppendEntries steps down
// via switchToFollower below.
func (n *Node) ReceiveAppendEntries(ctx context.Context, input AppendEntriesInput) AppendEntriesResult {
	sorted := append([]Term(nil), input.Entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	input.Entries = sorted

	if reject, ok := n.checkAppendEntries(input); !ok {
		return reject
	}

	_ = n.switchToFollower(ctx, input.LeaderID)
	n.resetHeartbeat()

	if input.PrevTerm.ID == 1 {
		n.Logger.Debug("append entries: root term case")
		idx, ok := n.Hook.PreAppendTerm(input.PrevTerm)
		if !ok {
			panic("raft: hook.PreAppendTerm returned a contract violation for root term")
		}
		if idx < input.PrevTerm.ID {
			n.Logger.Info("root term rejected by pre_append_term", zap.Uint64("idx", idx))
			return AppendEntriesResult{CurrentTerm: n.Log.Current(), Success: false}
		}
		n.Log.Insert(input.PrevTerm)
		n.Hook.AppendTerm(input.PrevTerm)
	} else {
		commitIndex := n.Log.CommitIndex()
		for _, entry := range input.Entries {
			if entry.ID <= commitIndex {
				continue
			}
			if rejected, result := n.preAppendAndInsert(entry); rejected {
				return result
			}
		}
		if rejected, result := n.preAppendAndInsert(input.Term); rejected {
			return result
		}
	}

	n.commitEntries(input.LeaderCommitIndex)

	current := n.Log.Current()
	return AppendEntriesResult{CurrentTerm: current, Success: current.ID <= input.Term.ID}
}

// preAppendAndInsert consults hook.PreAppendTerm for a single entry and
// either inserts it (returning rejected=false) or produces the
// success=false rejection reply (rejected=true), per spec.md §4.3
// "Entries case".
func (n *Node) preAppendAndInsert(entry Term) (rejected bool, result AppendEntriesResult) {
	idx, ok := n.Hook.PreAppendTerm(entry)
	if !ok {
		panic("raft: hook.PreAppendTerm returned a contract violation for entry " + entry.Content)
	}
	if idx < entry.ID {
		n.Logger.Info("entry rejected by pre_append_term", zap.Uint64("entry_id", entry.ID), zap.Uint64("idx", idx))
		return true, AppendEntriesResult{CurrentTerm: n.Log.Current(), Success: false}
	}
	n.Log.Insert(entry)
	n.Hook.AppendTerm(entry)
	return false, AppendEntriesResult{}
}

// checkAppendEntries implements the ordered input checks of spec.md §4.3.
// It returns (zero, true) when the request passes, or (rejection, false)
// when it should be rejected immediately with that reply.
func (n *Node) checkAppendEntries(input AppendEntriesInput) (AppendEntriesResult, bool) {
	currentTerm := n.Log.Current()

	if input.Term.ID < currentTerm.ID {
		return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
	}
	if input.LeaderCommitIndex < n.Log.CommitIndex() {
		return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
	}
	if input.PrevTerm.ID > input.Term.ID {
		return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
	}

	expectedCount := uint64(0)
	if input.Term.ID > input.PrevTerm.ID {
		expectedCount = input.Term.ID - input.PrevTerm.ID - 1
	}
	emptyCase := input.Term.ID == input.PrevTerm.ID && len(input.Entries) == 0
	countCase := uint64(len(input.Entries)) == expectedCount
	if !emptyCase && !countCase {
		n.Logger.Info("append entries rejected: entry count invariant violated",
			zap.Int("got", len(input.Entries)), zap.Uint64("want", expectedCount))
		return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
	}

	expected := input.PrevTerm.ID + 1
	for _, e := range input.Entries {
		if e.ID != expected {
			n.Logger.Info("append entries rejected: entries not contiguous",
				zap.Uint64("entry_id", e.ID), zap.Uint64("expected", expected))
			return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
		}
		expected++
	}

	if local, ok := n.Log.Find(input.PrevTerm.ID); ok {
		if !local.Equal(input.PrevTerm) {
			n.Log.Insert(input.PrevTerm)
			n.Hook.AppendTerm(input.PrevTerm)
		}
	} else if input.PrevTerm.ID <= n.Log.CommitIndex() {
		// already committed, nothing to do
	} else if input.PrevTerm.ID == 1 {
		// root special-case: accepted once, even absent from the log
	} else {
		n.Logger.Warn("append entries rejected: unable to find previous term", zap.Uint64("prev_term_id", input.PrevTerm.ID))
		return AppendEntriesResult{CurrentTerm: currentTerm, Success: false}, false
	}

	return AppendEntriesResult{}, true
}
