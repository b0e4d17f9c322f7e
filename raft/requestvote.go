package raft

// ReceiveRequestVote implements the follower receive-path of spec.md §4.8
// (Raft §5.2/§5.4), grounded on workflow/request_vote.rs. The vote record
// holds the candidate id and last_term of the last granted vote: once it is
// set, a different candidate is granted only with a strictly greater
// last_term, while the recorded candidate may re-request and be granted
// again. Granting resets the heartbeat so an already-voted follower doesn't
// also time out into its own candidacy mid-election.
func (n *Node) ReceiveRequestVote(input RequestVoteInput) RequestVoteResult {
	current := n.Log.Current()

	if input.Term.ID < current.ID {
		return RequestVoteResult{CurrentTerm: current, VoteGranted: false}
	}

	var granted bool
	if vote := n.currentVote(); vote != nil {
		granted = input.LastTerm > vote.lastTerm || input.CandidateID == vote.candidateID
	} else {
		granted = input.LastTerm >= n.Log.CommitIndex()
	}

	if granted {
		n.recordVote(input.CandidateID, input.LastTerm)
		n.resetHeartbeat()
	}
	return RequestVoteResult{CurrentTerm: current, VoteGranted: granted}
}
