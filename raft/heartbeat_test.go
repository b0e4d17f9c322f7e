package raft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatTimerFires(t *testing.T) {
	h := NewHeartbeatTimer()
	h.Reset(5*time.Millisecond, 10*time.Millisecond)

	select {
	case gen := <-h.Fired():
		assert.True(t, h.IsCurrent(gen))
	case <-time.After(time.Second):
		t.Fatal("heartbeat never fired")
	}
}

func TestHeartbeatTimerCancelSuppressesFiring(t *testing.T) {
	h := NewHeartbeatTimer()
	h.Reset(5*time.Millisecond, 10*time.Millisecond)
	h.Cancel()

	select {
	case gen := <-h.Fired():
		t.Fatalf("cancelled timer should not fire, got generation %d", gen)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestHeartbeatTimerResetInvalidatesPriorGeneration(t *testing.T) {
	h := NewHeartbeatTimer()
	h.Reset(5*time.Millisecond, 10*time.Millisecond)
	require.True(t, h.IsCurrent(1))

	h.Reset(50*time.Millisecond, 60*time.Millisecond)
	assert.False(t, h.IsCurrent(1), "prior generation must be stale after Reset")
}
