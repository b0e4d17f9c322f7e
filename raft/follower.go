package raft

import (
	"context"

	"go.uber.org/zap"
)

// runFollower runs the heartbeat countdown per spec.md §4.9. A pure
// follower node (Config.Follower) never starts the timer and blocks only
// on shutdown, matching workflow/follower.rs's early-return branch.
func (n *Node) runFollower(ctx context.Context) error {
	n.Logger.Info("running follower", zap.String("known_leader", n.Status.KnownLeader()))
	if n.Config.Follower {
		<-ctx.Done()
		return nil
	}

	n.heartbeat.Reset(n.Config.TimeoutMin, n.Config.TimeoutMax)
	for n.Status.Is(Follower) {
		select {
		case <-ctx.Done():
			n.heartbeat.Cancel()
			return nil
		case gen := <-n.heartbeat.Fired():
			if !n.heartbeat.IsCurrent(gen) {
				continue
			}
			n.Logger.Info("heartbeat timeout, switching to candidate")
			if err := n.switchToCandidate(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}

// resetHeartbeat restarts the countdown; called whenever a valid RPC is
// accepted (spec.md §4.9). A no-op for pure-follower nodes, which never
// run one.
func (n *Node) resetHeartbeat() {
	if n.Config.Follower {
		return
	}
	n.heartbeat.Reset(n.Config.TimeoutMin, n.Config.TimeoutMax)
}
