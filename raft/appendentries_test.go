package raft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveAppendEntriesRootTermAccepted(t *testing.T) {
	n, _, _ := testNode(nil, false)
	require.NoError(t, n.Status.Transition(Follower, ""))

	input := AppendEntriesInput{
		Term:              Term{ID: 1, Content: "a"},
		LeaderID:          "10.10.10.10:1212",
		PrevTerm:          Term{ID: 1, Content: "a"},
		Entries:           nil,
		LeaderCommitIndex: 0,
	}

	result := n.ReceiveAppendEntries(context.Background(), input)

	assert.True(t, result.Success)
	current := n.Log.Current()
	assert.Equal(t, uint64(1), current.ID)
	assert.Equal(t, "10.10.10.10:1212", n.Status.KnownLeader())
}

func TestReceiveAppendEntriesRejectsEntryCountMismatch(t *testing.T) {
	n, _, _ := testNode(nil, false)
	require.NoError(t, n.Status.Transition(Follower, ""))

	input := AppendEntriesInput{
		Term:     Term{ID: 3, Content: "c"},
		LeaderID: "leader",
		PrevTerm: Term{ID: 1, Content: "a"},
		Entries:  nil,
	}

	result := n.ReceiveAppendEntries(context.Background(), input)

	assert.False(t, result.Success)
	assert.Equal(t, uint64(0), n.Log.LastIndex(), "rejected request must not mutate the log")
}

func TestReceiveAppendEntriesConflictRollback(t *testing.T) {
	n, _, _ := testNode(nil, false)
	require.NoError(t, n.Status.Transition(Follower, ""))

	n.Log.Insert(Term{ID: 1, Content: "a"})
	n.Log.Insert(Term{ID: 2, Content: "orig2"})
	n.Log.Insert(Term{ID: 3, Content: "orig3"})

	input := AppendEntriesInput{
		Term:     Term{ID: 3, Content: "new3"},
		LeaderID: "leader",
		PrevTerm: Term{ID: 2, Content: "different"},
		Entries:  nil,
	}

	result := n.ReceiveAppendEntries(context.Background(), input)

	assert.True(t, result.Success)
	tail, ok := n.Log.Find(3)
	require.True(t, ok)
	assert.Equal(t, "new3", tail.Content, "conflicting tail must be replaced by the leader's entry")
	got, ok := n.Log.Find(2)
	require.True(t, ok)
	assert.Equal(t, "different", got.Content)
}
