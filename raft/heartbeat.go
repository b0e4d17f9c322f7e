package raft

import (
	"math/rand"
	"sync"
	"time"
)

// HeartbeatTimer is a cancellable, single-shot randomized countdown. It is
// the Go counterpart of the original's `dyn_timeout` usage in
// workflow/follower.rs: starting a new timer (or cancelling) always
// invalidates any prior in-flight countdown, and cancellation releases the
// underlying timer so it never fires (spec.md §4.9/§5). Firings are
// generation-tagged so a stale callback racing with Reset/Cancel is
// observably discarded rather than waking the wrong wait.
type HeartbeatTimer struct {
	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	fired      chan uint64
}

// NewHeartbeatTimer returns a timer with no countdown running.
func NewHeartbeatTimer() *HeartbeatTimer {
	return &HeartbeatTimer{fired: make(chan uint64, 1)}
}

// Reset cancels any running countdown and starts a fresh one sampled
// uniformly from [min, max].
func (h *HeartbeatTimer) Reset(min, max time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked() // bumps the generation, invalidating the prior countdown
	gen := h.generation
	d := randomDuration(min, max)
	h.timer = time.AfterFunc(d, func() {
		select {
		case h.fired <- gen:
		default:
		}
	})
}

// Cancel stops any running countdown and discards a pending stale firing.
func (h *HeartbeatTimer) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
}

func (h *HeartbeatTimer) cancelLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.generation++
	select {
	case <-h.fired:
	default:
	}
}

// Fired returns the channel a countdown's generation number is posted to
// on expiry. Callers must confirm the generation is still current (via
// IsCurrent) before acting on it, since a countdown replaced by Reset or
// stopped by Cancel may race with an already-scheduled callback.
func (h *HeartbeatTimer) Fired() <-chan uint64 {
	return h.fired
}

// IsCurrent reports whether gen is the generation of the countdown that is
// (or was, at time of call) running.
func (h *HeartbeatTimer) IsCurrent(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return gen == h.generation
}

func randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// afterRandom returns a channel that fires once after a duration sampled
// uniformly from [min, max], for one-shot backoffs outside the heartbeat
// countdown (e.g. the candidate's inter-round retry delay).
func afterRandom(min, max time.Duration) <-chan time.Time {
	return time.After(randomDuration(min, max))
}
