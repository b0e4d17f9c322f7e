package raft

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// fakeHook is a minimal in-memory Hook for tests: it accepts everything
// pre_append_term asks about, by reporting back the incoming id itself.
type fakeHook struct {
	mu        sync.Mutex
	applied   map[uint64]Term
	switches  []Role
	committed []uint64
}

func newFakeHook() *fakeHook {
	return &fakeHook{applied: make(map[uint64]Term)}
}

func (h *fakeHook) UpdateNode() bool { return true }

func (h *fakeHook) PreAppendTerm(term Term) (uint64, bool) {
	return term.ID, true
}

func (h *fakeHook) AppendTerm(term Term) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applied[term.ID] = term
	return true
}

func (h *fakeHook) CommitTerm(term Term) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.committed = append(h.committed, term.ID)
	return true
}

func (h *fakeHook) PrepareTerm() string {
	return "content"
}

func (h *fakeHook) RetrieveTerm(id uint64) (Term, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.applied[id]
	return t, ok
}

func (h *fakeHook) RetrieveTerms(from, to uint64) ([]Term, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Term, 0, to-from+1)
	for i := from; i <= to; i++ {
		t, ok := h.applied[i]
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func (h *fakeHook) SwitchStatus(role Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.switches = append(h.switches, role)
}

// fakeTransport is a deterministic, in-memory raft.Transport — the
// rearchitecture spec.md's Design Notes call for in place of the
// original's global mutable mock queues (see raft/transport.go).
type fakeTransport struct {
	mu                  sync.Mutex
	appendEntriesResult AppendEntriesResult
	appendEntriesErr    error
	requestVoteResult   RequestVoteResult
	requestVoteErr      error
	updateNodeResult    UpdateNodeResult
	updateNodeErr       error

	appendEntriesCalls []AppendEntriesInput
	requestVoteCalls   []RequestVoteInput
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) AppendEntries(_ context.Context, _ string, input AppendEntriesInput) (AppendEntriesResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendEntriesCalls = append(t.appendEntriesCalls, input)
	return t.appendEntriesResult, t.appendEntriesErr
}

func (t *fakeTransport) RequestVote(_ context.Context, _ string, input RequestVoteInput) (RequestVoteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestVoteCalls = append(t.requestVoteCalls, input)
	return t.requestVoteResult, t.requestVoteErr
}

func (t *fakeTransport) UpdateNode(_ context.Context, _ string, _ UpdateNodeInput) (UpdateNodeResult, error) {
	return t.updateNodeResult, t.updateNodeErr
}

func testConfig(nodes []string, follower bool) Config {
	return Config{
		Addr:              "127.0.0.1",
		Port:              "0",
		Nodes:             nodes,
		Follower:          follower,
		TimeoutMin:        10_000_000,  // 10ms
		TimeoutMax:        20_000_000,  // 20ms
		ResponseTimeout:   50_000_000,  // 50ms
		PrepareTermPeriod: 5_000_000,   // 5ms
		NodeID:            "test",
	}
}

func testNode(nodes []string, follower bool) (*Node, *fakeHook, *fakeTransport) {
	h := newFakeHook()
	tr := newFakeTransport()
	n := NewNode(testConfig(nodes, follower), h, tr, zap.NewNop())
	return n, h, tr
}
