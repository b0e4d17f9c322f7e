package raft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCellLegalTransitions(t *testing.T) {
	cell := NewStatusCell()
	assert.Equal(t, ConnectionPending, cell.Role())

	require.NoError(t, cell.Transition(Follower, ""))
	assert.True(t, cell.Is(Follower))

	require.NoError(t, cell.Transition(Candidate, ""))
	require.NoError(t, cell.Transition(Leader, ""))
	require.NoError(t, cell.Transition(Follower, "leader-addr"))
	assert.Equal(t, "leader-addr", cell.KnownLeader())
}

func TestStatusCellIllegalTransitionRejected(t *testing.T) {
	cell := NewStatusCell()
	require.NoError(t, cell.Transition(Follower, ""))

	err := cell.Transition(Leader, "")
	require.Error(t, err)
	var fatalErr *FatalError
	assert.ErrorAs(t, err, &fatalErr)
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.Equal(t, Follower, cell.Role(), "rejected transition must not mutate state")
}

func TestStatusCellWaitWakesOnTransition(t *testing.T) {
	cell := NewStatusCell()
	woke := make(chan struct{})
	go func() {
		_ = cell.Wait(context.Background())
		close(woke)
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cell.Transition(Follower, ""))

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake up on transition")
	}
}

func TestStatusCellWaitRespectsContext(t *testing.T) {
	cell := NewStatusCell()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, cell.Wait(ctx), context.Canceled)
}
