package raft

import (
	"context"

	"go.uber.org/zap"
)

// Initialize brings a freshly constructed Node out of ConnectionPending,
// per spec.md §4.10 / workflow/init.rs. A node with no configured seed
// peers has no cluster to join: a non-pure-follower starts its own
// election immediately, a pure follower just waits on the RPC server
// (spec.md §4.9's blocking branch). A node with seeds must reach one —
// directly or via redirect to the leader it reports — before it may run.
func (n *Node) Initialize(ctx context.Context) error {
	if len(n.Config.Nodes) == 0 {
		n.Logger.Warn("no seed peers configured")
		if !n.Config.Follower {
			return n.bootstrapTransition(Candidate, "")
		}
		return n.bootstrapTransition(Follower, "")
	}
	return n.connectToLeader(ctx)
}

// bootstrapTransition performs the initial role transition out of
// ConnectionPending, reporting any failure as ErrInitializationFail rather
// than the bare ErrWrongStatus a transition rejection would otherwise carry.
func (n *Node) bootstrapTransition(role Role, knownLeader string) error {
	if err := n.Status.Transition(role, knownLeader); err != nil {
		return fatal(ErrInitializationFail, err.Error())
	}
	n.Hook.SwitchStatus(role)
	return nil
}

// connectToLeader tries each configured seed in order via /update_node. A
// seed that isn't itself the leader triggers one redirect attempt to the
// leader it names; whichever reply succeeds wins. Membership lists from
// that reply are merged into the local registry. If every seed is
// unreachable: a non-pure-follower falls back to contesting an election on
// its own; a pure follower — which depends entirely on a seed to ever
// learn who the leader is — fails to bootstrap (ErrImpossibleToBootstrap).
func (n *Node) connectToLeader(ctx context.Context) error {
	for _, seed := range n.Config.Nodes {
		res, ok := n.tryUpdateNode(ctx, seed)
		if !ok {
			continue
		}
		leader := res.LeaderID
		if leader != "" && leader != seed {
			if redirected, ok := n.tryUpdateNode(ctx, leader); ok {
				res = redirected
			}
		}
		if leader == "" {
			leader = seed
		}
		n.mergePeerLists(res.NodeList, res.FollowerList)
		if !n.Config.Follower {
			n.addVotingPeer(seed)
		} else {
			n.addFollowerOnlyPeer(seed)
		}
		return n.switchToFollower(ctx, leader)
	}

	n.Logger.Warn("no seed peer reachable")
	if !n.Config.Follower {
		return n.bootstrapTransition(Candidate, "")
	}
	return fatal(ErrImpossibleToBootstrap, "configured seed peers are all unreachable")
}

func (n *Node) tryUpdateNode(ctx context.Context, peer string) (UpdateNodeResult, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, n.Config.ResponseTimeout)
	defer cancel()
	res, err := n.Transport.UpdateNode(reqCtx, peer, UpdateNodeInput{
		Hash:     n.UUID,
		Port:     n.Config.Port,
		Follower: n.Config.Follower,
	})
	if err != nil {
		n.Logger.Warn("seed unreachable", zap.String("peer", peer), zap.Error(err))
		return UpdateNodeResult{}, false
	}
	return res, true
}

// ReceiveConnectionRequest implements the leader side of /update_node
// (spec.md §4.10). Only a Leader may admit a joiner; any other role
// redirects the caller to the last known leader. Admission queues info for
// replication as a conn entry on the next term-preparation tick rather than
// mutating the peer registry immediately — membership change is itself
// replicated, per spec.md §3. A joiner reporting our own identity is
// ignored (SPEC_FULL.md §7.2 self-join suppression).
func (n *Node) ReceiveConnectionRequest(info NodeInfo) (UpdateNodeResult, error) {
	if !n.Status.Is(Leader) {
		leader := n.Status.KnownLeader()
		return UpdateNodeResult{LeaderID: leader}, &HTTPErrorResult{
			ErrID:   ErrIDUnknownLeader,
			Message: "not the leader",
		}
	}

	if info.Hash == n.UUID {
		n.Logger.Debug("ignoring self-join connection request")
		return UpdateNodeResult{
			LeaderID:     n.selfAddr(),
			NodeList:     n.votingPeers(),
			FollowerList: n.followerOnlyPeers(),
		}, nil
	}

	if !n.Hook.UpdateNode() {
		return UpdateNodeResult{}, &HTTPErrorResult{
			ErrID:   ErrIDAppendTermGeneric,
			Message: "rejected by hook",
		}
	}

	n.pushJoiner(info)
	n.Logger.Info("queued connection request", zap.String("addr", info.Addr), zap.Bool("follower", info.Follower))

	return UpdateNodeResult{
		LeaderID:     n.selfAddr(),
		NodeList:     n.votingPeers(),
		FollowerList: n.followerOnlyPeers(),
	}, nil
}
