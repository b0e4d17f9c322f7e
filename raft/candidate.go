package raft

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// runCandidate drives one or more election rounds per spec.md §4.7,
// grounded on workflow/candidate.rs. Each round appends a synthetic
// "candidature" entry to bump the term, votes for itself, and solicits the
// remaining voting peers; a round that doesn't reach strict majority sleeps
// a randomized backoff before retrying. "Strict majority" here is
// granted*2 > totalVoters (SPEC_FULL.md §13 Open Question 3) — the
// deprecated >=0.5 threshold found in the original is not carried forward.
func (n *Node) runCandidate(ctx context.Context) error {
	n.Logger.Info("running candidate")
	for n.Status.Is(Candidate) {
		if ctx.Err() != nil {
			return nil
		}

		n.candidacyMu.Lock()
		n.candidacyCommit = n.Log.CommitIndex()
		n.candidacyMu.Unlock()

		n.resetNextIndexes()
		entry := n.Log.Append("candidature")
		n.recordVote(n.selfAddr(), n.candidacyCommit)

		won, steppedDown, err := n.runElectionRound(ctx, entry)
		if err != nil {
			return err
		}
		if steppedDown {
			return nil
		}
		if won {
			return n.switchToLeader()
		}

		n.Logger.Info("election round failed to reach quorum, retrying")
		select {
		case <-ctx.Done():
			return nil
		case <-afterRandom(n.Config.TimeoutMin, n.Config.TimeoutMax):
		}
	}
	return nil
}

// runElectionRound solicits every voting peer concurrently and tallies the
// result. It returns won=true once a strict majority (including the
// self-vote) is reached, or steppedDown=true if any peer reports a term
// higher than our own (spec.md §4.7 "higher term observed").
func (n *Node) runElectionRound(ctx context.Context, term Term) (won bool, steppedDown bool, err error) {
	peers := n.votingPeers()
	total := len(peers) + 1
	granted := 1 // self-vote

	if granted*2 > total {
		return true, false, nil
	}
	if len(peers) == 0 {
		return false, false, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, n.Config.ResponseTimeout)
	defer cancel()

	type voteOutcome struct {
		peer    string
		granted bool
		higher  bool
	}
	results := make(chan voteOutcome, len(peers))
	var wg sync.WaitGroup
	for _, peer := range peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			res, reqErr := n.Transport.RequestVote(reqCtx, peer, RequestVoteInput{
				CandidateID: n.selfAddr(),
				Term:        term,
				LastTerm:    n.candidacyCommit,
			})
			if reqErr != nil {
				n.Logger.Warn("request_vote failed", zap.String("peer", peer), zap.Error(reqErr))
				results <- voteOutcome{peer: peer}
				return
			}
			results <- voteOutcome{peer: peer, granted: res.VoteGranted, higher: res.CurrentTerm.ID > term.ID}
		}(peer)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		if outcome.higher {
			n.Logger.Info("observed higher term during election, stepping down", zap.String("peer", outcome.peer))
			cancel()
			if err := n.switchToFollower(ctx, outcome.peer); err != nil {
				return false, false, err
			}
			return false, true, nil
		}
		if outcome.granted {
			granted++
		}
		if granted*2 > total {
			return true, false, nil
		}
	}

	return false, false, nil
}
