package raft

import "go.uber.org/zap"

// commitEntries advances the commit index to newCommitIndex, applying each
// newly committed entry via hook.CommitTerm in id order, and folding any
// "conn:" entry into the peer registry (spec.md §4.6). A conn entry whose
// embedded hash is our own uuid is a self-join acknowledgement and is
// skipped (SPEC_FULL.md §7.2).
func (n *Node) commitEntries(newCommitIndex uint64) {
	oldCommitIndex := n.Log.CommitIndex()
	if newCommitIndex <= oldCommitIndex {
		return
	}
	if newCommitIndex > n.Log.LastIndex() {
		n.Logger.Warn("refusing to commit past last index",
			zap.Uint64("requested", newCommitIndex), zap.Uint64("last_index", n.Log.LastIndex()))
		return
	}
	for i := oldCommitIndex + 1; i <= newCommitIndex; i++ {
		entry, ok := n.Log.Find(i)
		if !ok {
			n.Logger.Warn("commit stopped: entry absent", zap.Uint64("id", i))
			return
		}
		if !n.Log.SetCommit(i) {
			n.Logger.Warn("commit index did not advance", zap.Uint64("id", i))
			return
		}
		if info, isConn := parseConnEntry(entry); isConn {
			if info.Hash == n.UUID {
				n.Logger.Debug("self-join entry committed, skipping registry update", zap.Uint64("id", i))
			} else if info.Follower {
				n.addFollowerOnlyPeer(info.Addr)
				n.Logger.Info("follower-only peer admitted", zap.String("addr", info.Addr))
			} else {
				n.addVotingPeer(info.Addr)
				n.Logger.Info("voting peer admitted", zap.String("addr", info.Addr))
			}
		}
		n.Hook.CommitTerm(entry)
		n.Logger.Debug("committed entry", zap.Uint64("id", i))
	}
}
