package raft

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxAppendBatch = 10
const maxReplicationAttempts = 100

// runLeader drives the term-preparation ticker and replication rounds of
// spec.md §4.6, grounded on workflow/leader.rs. Every tick appends one new
// entry (a queued joiner's conn entry takes priority over hook.PrepareTerm,
// SPEC_FULL.md §13 Open Question 4 — at most one conn entry flushed per
// tick) and then replicates the log to every peer.
func (n *Node) runLeader(ctx context.Context) error {
	n.Logger.Info("running leader")
	n.resetNextIndexes()
	lastIndex := n.Log.LastIndex()
	for _, peer := range append(n.votingPeers(), n.followerOnlyPeers()...) {
		n.setNextIndex(peer, NextIndex{Index: lastIndex + 1, Validated: false})
	}

	ticker := time.NewTicker(n.Config.PrepareTermPeriod)
	defer ticker.Stop()

	for n.Status.Is(Leader) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.prepareTerm()
			steppedDown, err := n.replicateToAll(ctx)
			if err != nil {
				return err
			}
			if steppedDown {
				return nil
			}
			n.Logger.Debug("replication round complete",
				zap.Int("voting_peers", n.votingPeerCount()),
				zap.Any("next_indexes", n.snapshotNextIndexes()),
				zap.Uint64("commit_index", n.Log.CommitIndex()))
		}
	}
	return nil
}

// prepareTerm appends exactly one new entry to the log and hands it to
// hook.AppendTerm, per spec.md §4.4's "append, then hook.append_term"
// sequencing (internal_term_preparation in leader.rs): a queued joiner's
// conn entry takes priority over application content from the hook.
func (n *Node) prepareTerm() {
	if joiner, ok := n.popJoiner(); ok {
		entry := n.Log.Append(connPrefix + encodeNodeInfo(joiner))
		n.Hook.AppendTerm(entry)
		n.Logger.Info("queued conn entry for joiner", zap.String("addr", joiner.Addr))
		return
	}
	entry := n.Log.Append(n.Hook.PrepareTerm())
	n.Hook.AppendTerm(entry)
}

type replicationOutcome struct {
	peer   string
	higher bool
	failed bool
}

// replicateToAll fans out AppendEntries to every peer concurrently, then
// advances the commit index once it observes it can. A single-node cluster
// (no peers at all) commits its own log immediately. If a majority of voting
// peers fail to respond this round, the leader can no longer confirm it holds
// a quorum and steps down to Candidate (spec.md §4.1 "Leader -> Candidate:
// quorum unreachable", §4.4; leader.rs:74-78). Follower-only peers are
// replicated to but their failures are not counted.
func (n *Node) replicateToAll(ctx context.Context) (steppedDown bool, err error) {
	voting := n.votingPeers()
	isVoting := make(map[string]bool, len(voting))
	for _, p := range voting {
		isVoting[p] = true
	}
	peers := append(voting, n.followerOnlyPeers()...)
	if len(peers) == 0 {
		n.commitEntries(n.Log.LastIndex())
		return false, nil
	}

	results := make(chan replicationOutcome, len(peers))
	var wg sync.WaitGroup
	for _, peer := range peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			n.replicateToPeer(ctx, peer, results)
		}(peer)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var higherFrom string
	failures := 0
	for outcome := range results {
		if outcome.higher && higherFrom == "" {
			higherFrom = outcome.peer
		}
		if outcome.failed && isVoting[outcome.peer] {
			failures++
		}
	}
	if higherFrom != "" {
		n.Logger.Info("observed higher term while replicating, stepping down", zap.String("peer", higherFrom))
		if err := n.switchToFollower(ctx, higherFrom); err != nil {
			return false, err
		}
		return true, nil
	}
	if failures*2 > len(voting) {
		n.Logger.Warn("quorum unreachable, stepping down to candidate",
			zap.Int("failures", failures), zap.Int("voting_peers", len(voting)))
		if err := n.switchToCandidate(); err != nil {
			return false, err
		}
		return true, nil
	}

	n.advanceCommit()
	return false, nil
}

// replicateToPeer sends AppendEntries to peer, retrying with a
// decremented nextIndex on rejection up to maxReplicationAttempts times
// (spec.md §4.6 "bounded retry budget"), so a lagging follower catches up
// within a single round instead of needing one tick per missing entry.
func (n *Node) replicateToPeer(ctx context.Context, peer string, results chan<- replicationOutcome) {
	for attempt := 0; attempt < maxReplicationAttempts; attempt++ {
		if ctx.Err() != nil {
			results <- replicationOutcome{peer: peer, failed: true}
			return
		}
		input, ok := n.buildAppendEntries(peer)
		if !ok {
			results <- replicationOutcome{peer: peer, failed: true}
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, n.Config.ResponseTimeout)
		res, err := n.Transport.AppendEntries(reqCtx, peer, input)
		cancel()
		if err != nil {
			n.Logger.Warn("append_entries failed", zap.String("peer", peer), zap.Error(err))
			results <- replicationOutcome{peer: peer, failed: true}
			return
		}
		if res.CurrentTerm.ID > n.Log.LastIndex() {
			results <- replicationOutcome{peer: peer, higher: true}
			return
		}
		if res.Success {
			n.setNextIndex(peer, NextIndex{Index: input.Term.ID + 1, Validated: true})
			results <- replicationOutcome{peer: peer}
			return
		}

		ni, _ := n.getNextIndex(peer)
		next := ni.Value()
		if next > 1 {
			next--
		}
		n.setNextIndex(peer, NextIndex{Index: next, Validated: false})
	}
	n.Logger.Warn("append_entries retry budget exhausted", zap.String("peer", peer))
	results <- replicationOutcome{peer: peer, failed: true}
}

// buildAppendEntries assembles the request for peer from its nextIndex
// cursor, grounded on leader_tools.rs's create_term_input: batches at most
// maxAppendBatch entries, and falls back to a heartbeat (Term == PrevTerm,
// no entries) when the peer is already fully caught up.
func (n *Node) buildAppendEntries(peer string) (AppendEntriesInput, bool) {
	ni, _ := n.getNextIndex(peer)
	nextIdx := ni.Value()
	if nextIdx == 0 {
		nextIdx = 1
	}
	prevIdx := nextIdx - 1

	var prevTerm Term
	switch {
	case prevIdx == 0:
		prevTerm = Term{ID: 1}
	default:
		if t, ok := n.Log.Find(prevIdx); ok {
			prevTerm = t
		} else if t, ok := n.Hook.RetrieveTerm(prevIdx); ok {
			prevTerm = t
		} else {
			n.Logger.Warn("cannot build append_entries: prev term missing",
				zap.String("peer", peer), zap.Uint64("prev_idx", prevIdx))
			return AppendEntriesInput{}, false
		}
	}

	latest := n.Log.Current()
	last := prevTerm.ID
	if latest.ID > prevTerm.ID {
		last = prevTerm.ID + maxAppendBatch
		if last > latest.ID {
			last = latest.ID
		}
	}

	var term Term
	var entries []Term
	if last == prevTerm.ID {
		term = prevTerm
	} else {
		t, ok := n.Log.Find(last)
		if !ok {
			t, ok = n.Hook.RetrieveTerm(last)
		}
		if !ok {
			n.Logger.Warn("cannot build append_entries: target term missing",
				zap.String("peer", peer), zap.Uint64("target", last))
			return AppendEntriesInput{}, false
		}
		term = t
		if last > prevTerm.ID+1 {
			entries = n.Log.EntriesInRange(prevTerm.ID+1, last-1)
		}
	}

	return AppendEntriesInput{
		Term:              term,
		LeaderID:          n.selfAddr(),
		PrevTerm:          prevTerm,
		Entries:           entries,
		LeaderCommitIndex: n.Log.CommitIndex(),
	}, true
}

// advanceCommit computes the highest index a strict majority of voting
// peers (the leader included) has validated, and commits up to it. Only
// voting peers count towards quorum; follower-only peers are replicated to
// but never consulted here (spec.md §4.6).
func (n *Node) advanceCommit() {
	peers := n.votingPeers()
	matches := make([]uint64, 0, len(peers)+1)
	matches = append(matches, n.Log.LastIndex())
	for _, p := range peers {
		ni, ok := n.getNextIndex(p)
		if !ok || !ni.Validated || ni.Index == 0 {
			matches = append(matches, 0)
			continue
		}
		matches = append(matches, ni.Index-1)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] > matches[j] })
	n.commitEntries(matches[len(matches)/2])
}
