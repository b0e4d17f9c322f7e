package raft

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config is the subset of settings (spec.md §6) the raft package needs.
// config.Settings in the sibling config package maps onto this directly;
// it is kept as its own type here so the raft package doesn't import the
// config package (which instead imports raft for raft.Config and the
// FatalError sentinels).
type Config struct {
	Addr               string
	Port               string
	Nodes              []string
	Follower           bool
	TimeoutMin         time.Duration
	TimeoutMax         time.Duration
	ResponseTimeout    time.Duration
	PrepareTermPeriod  time.Duration
	NodeID             string
}

// Node is the aggregate root: it owns the log store, role cell, peer
// registry, vote record, joiners queue, heartbeat timer handle, and hook,
// per spec.md §3 "Ownership". All internal state is shareable across
// goroutines via the mutual-exclusion primitives each sub-component owns.
//
// Lock acquisition order, when more than one must be held across a
// suspension point, is fixed: role -> log -> peer registry -> vote ->
// joiners (spec.md §5). No single method in this package currently needs
// to hold more than one at a time across an await point; the order is
// documented here for future maintainers.
type Node struct {
	UUID   [16]byte
	Config Config
	Logger *zap.Logger

	Status    *StatusCell
	Log       *Log
	Hook      Hook
	Transport Transport

	heartbeat *HeartbeatTimer

	peersMu      sync.RWMutex
	peers        map[string]struct{} // voting membership
	followerOnly map[string]struct{} // joined with follower=true: never votes, never counts to quorum

	nextIndexMu sync.RWMutex
	nextIndexes map[string]NextIndex

	voteMu sync.Mutex
	vote   *voteRecord

	joinersMu sync.Mutex
	joiners   []NodeInfo

	candidacyMu       sync.Mutex
	candidacyCommit   uint64 // commit index snapshotted when candidature began
}

type voteRecord struct {
	candidateID string
	lastTerm    uint64
}

// NewNode constructs a Node in ConnectionPending, wired with hook and
// transport, ready to Initialize.
func NewNode(cfg Config, hook Hook, transport Transport, logger *zap.Logger) *Node {
	id := uuid.New()
	var raw [16]byte
	copy(raw[:], id[:])

	peers := make(map[string]struct{}, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		peers[n] = struct{}{}
	}

	return &Node{
		UUID:         raw,
		Config:       cfg,
		Logger:       logger.With(zap.String("addr", cfg.Addr+":"+cfg.Port)),
		Status:       NewStatusCell(),
		Log:          NewLog(),
		Hook:         hook,
		Transport:    transport,
		heartbeat:    NewHeartbeatTimer(),
		peers:        peers,
		followerOnly: make(map[string]struct{}),
		nextIndexes:  make(map[string]NextIndex),
	}
}

func (n *Node) selfAddr() string {
	return n.Config.Addr + ":" + n.Config.Port
}

// ---- peer registry ----

func (n *Node) addVotingPeer(addr string) {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	delete(n.followerOnly, addr)
	n.peers[addr] = struct{}{}
}

func (n *Node) addFollowerOnlyPeer(addr string) {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	delete(n.peers, addr)
	n.followerOnly[addr] = struct{}{}
}

func (n *Node) votingPeers() []string {
	n.peersMu.RLock()
	defer n.peersMu.RUnlock()
	out := make([]string, 0, len(n.peers))
	for p := range n.peers {
		out = append(out, p)
	}
	return out
}

func (n *Node) followerOnlyPeers() []string {
	n.peersMu.RLock()
	defer n.peersMu.RUnlock()
	out := make([]string, 0, len(n.followerOnly))
	for p := range n.followerOnly {
		out = append(out, p)
	}
	return out
}

func (n *Node) votingPeerCount() int {
	n.peersMu.RLock()
	defer n.peersMu.RUnlock()
	return len(n.peers)
}

func (n *Node) mergePeerLists(nodeList, followerList []string) {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	for _, p := range nodeList {
		n.peers[p] = struct{}{}
	}
	for _, p := range followerList {
		n.followerOnly[p] = struct{}{}
	}
}

// ---- next-index table ----

func (n *Node) getNextIndex(peer string) (NextIndex, bool) {
	n.nextIndexMu.RLock()
	defer n.nextIndexMu.RUnlock()
	ni, ok := n.nextIndexes[peer]
	return ni, ok
}

func (n *Node) setNextIndex(peer string, ni NextIndex) {
	n.nextIndexMu.Lock()
	defer n.nextIndexMu.Unlock()
	n.nextIndexes[peer] = ni
}

func (n *Node) resetNextIndexes() {
	n.nextIndexMu.Lock()
	defer n.nextIndexMu.Unlock()
	n.nextIndexes = make(map[string]NextIndex)
}

func (n *Node) snapshotNextIndexes() map[string]NextIndex {
	n.nextIndexMu.RLock()
	defer n.nextIndexMu.RUnlock()
	out := make(map[string]NextIndex, len(n.nextIndexes))
	for k, v := range n.nextIndexes {
		out[k] = v
	}
	return out
}

// ---- vote record ----

func (n *Node) recordVote(candidateID string, lastTerm uint64) {
	n.voteMu.Lock()
	defer n.voteMu.Unlock()
	n.vote = &voteRecord{candidateID: candidateID, lastTerm: lastTerm}
}

func (n *Node) currentVote() *voteRecord {
	n.voteMu.Lock()
	defer n.voteMu.Unlock()
	return n.vote
}

func (n *Node) clearVote() {
	n.voteMu.Lock()
	defer n.voteMu.Unlock()
	n.vote = nil
}

// ---- joiners queue ----

func (n *Node) pushJoiner(info NodeInfo) {
	n.joinersMu.Lock()
	defer n.joinersMu.Unlock()
	for _, j := range n.joiners {
		if j.Hash == info.Hash {
			n.Logger.Warn("joiner already queued", zap.String("addr", info.Addr))
			return
		}
	}
	n.joiners = append(n.joiners, info)
}

func (n *Node) popJoiner() (NodeInfo, bool) {
	n.joinersMu.Lock()
	defer n.joinersMu.Unlock()
	if len(n.joiners) == 0 {
		return NodeInfo{}, false
	}
	info := n.joiners[0]
	n.joiners = n.joiners[1:]
	return info, true
}

// ---- NodeInfo <-> conn entry content ----

func encodeNodeInfo(info NodeInfo) string {
	b, err := json.Marshal(info)
	if err != nil {
		panic("raft: failed to encode NodeInfo: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeNodeInfo(encoded string) (NodeInfo, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return NodeInfo{}, err
	}
	var info NodeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return NodeInfo{}, err
	}
	return info, nil
}

// ---- role transitions (hook-observed) ----

func (n *Node) switchToFollower(ctx context.Context, leader string) error {
	if n.Status.Is(Follower) && n.Status.KnownLeader() == leader {
		return nil
	}
	if err := n.Status.Transition(Follower, leader); err != nil {
		return err
	}
	n.Hook.SwitchStatus(Follower)
	n.clearVote()
	return nil
}

func (n *Node) switchToCandidate() error {
	if err := n.Status.Transition(Candidate, ""); err != nil {
		return err
	}
	n.Hook.SwitchStatus(Candidate)
	return nil
}

func (n *Node) switchToLeader() error {
	if err := n.Status.Transition(Leader, ""); err != nil {
		return err
	}
	n.Hook.SwitchStatus(Leader)
	return nil
}

// Run dispatches on the current role until ctx is cancelled, mirroring the
// teacher's Run/runFollower/runCandidate/runLeader loop shape (spec.md §2
// "Control flow").
func (n *Node) Run(ctx context.Context) error {
	if err := n.Initialize(ctx); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		var err error
		switch n.Status.Role() {
		case Follower:
			err = n.runFollower(ctx)
		case Candidate:
			err = n.runCandidate(ctx)
		case Leader:
			err = n.runLeader(ctx)
		case ConnectionPending:
			// Initialize always leaves the node in Follower or Candidate;
			// observing ConnectionPending here is a contract violation.
			return fatal(ErrWrongStatus, "main loop observed ConnectionPending after initialize")
		}
		if err != nil {
			return err
		}
	}
}
