package hook

import (
	"strconv"
	"sync"

	"github.com/adrien-zinger/hook-raft/raft"
)

// NopHook is a minimal in-memory raft.Hook: every term is accepted and
// retained, PrepareTerm emits an incrementing placeholder, and role
// switches are ignored. It's the hook used by embeddings with no
// application state of their own, and by tests.
type NopHook struct {
	mu    sync.Mutex
	store map[uint64]raft.Term
	seq   uint64
}

// NewNopHook returns a ready-to-use NopHook.
func NewNopHook() *NopHook {
	return &NopHook{store: make(map[uint64]raft.Term)}
}

func (h *NopHook) UpdateNode() bool { return true }

func (h *NopHook) PreAppendTerm(term raft.Term) (uint64, bool) {
	return term.ID, true
}

func (h *NopHook) AppendTerm(term raft.Term) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store[term.ID] = term
	return true
}

func (h *NopHook) CommitTerm(term raft.Term) bool {
	return true
}

func (h *NopHook) PrepareTerm() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return "tick-" + strconv.FormatUint(h.seq, 10)
}

func (h *NopHook) RetrieveTerm(id uint64) (raft.Term, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.store[id]
	return t, ok
}

func (h *NopHook) RetrieveTerms(from, to uint64) ([]raft.Term, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if to < from {
		return nil, false
	}
	out := make([]raft.Term, 0, to-from+1)
	for i := from; i <= to; i++ {
		t, ok := h.store[i]
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func (h *NopHook) SwitchStatus(role raft.Role) {}
