package raft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunElectionRoundWinsOnMajority(t *testing.T) {
	n, _, tr := testNode([]string{"p1", "p2"}, false)
	tr.requestVoteResult = RequestVoteResult{VoteGranted: true}

	won, steppedDown, err := n.runElectionRound(context.Background(), Term{ID: 1})
	require.NoError(t, err)
	assert.False(t, steppedDown)
	assert.True(t, won, "self-vote plus one peer grant reaches strict majority of 3")
}

func TestRunElectionRoundLosesWithoutMajority(t *testing.T) {
	n, _, tr := testNode([]string{"p1", "p2", "p3", "p4"}, false)
	tr.requestVoteResult = RequestVoteResult{VoteGranted: false}

	won, steppedDown, err := n.runElectionRound(context.Background(), Term{ID: 1})
	require.NoError(t, err)
	assert.False(t, steppedDown)
	assert.False(t, won, "self-vote alone out of 5 voters is not a majority")
}

func TestRunElectionRoundStepsDownOnHigherTerm(t *testing.T) {
	n, _, tr := testNode([]string{"p1"}, false)
	require.NoError(t, n.Status.Transition(Follower, ""))
	require.NoError(t, n.Status.Transition(Candidate, ""))
	tr.requestVoteResult = RequestVoteResult{VoteGranted: false, CurrentTerm: Term{ID: 9}}

	won, steppedDown, err := n.runElectionRound(context.Background(), Term{ID: 1})
	require.NoError(t, err)
	assert.False(t, won)
	assert.True(t, steppedDown)
	assert.True(t, n.Status.Is(Follower))
}
