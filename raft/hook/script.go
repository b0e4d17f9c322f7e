// Package hook provides concrete raft.Hook implementations: ScriptHook, a
// default that delegates every callback to an external executable (the Go
// counterpart of common/scripts.rs), and NopHook, a minimal in-memory
// capability object for tests and bare embeddings.
package hook

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/adrien-zinger/hook-raft/raft"
)

// ScriptHook shells out to "<dir>/<prefix><callback>" for every raft.Hook
// method, passing arguments as positional strings and reading stdout as the
// result. A script that is missing or exits non-zero is treated
// permissively — the protocol never blocks on application wiring that
// hasn't been installed yet.
type ScriptHook struct {
	dir    string
	prefix string
	logger *zap.Logger

	mu    sync.Mutex
	store map[uint64]raft.Term
	seq   uint64
}

// NewScriptHook returns a hook that looks for scripts under dir named
// prefix+callback (e.g. dir="." prefix="hook_" -> "./hook_prepare_term").
func NewScriptHook(dir, prefix string, logger *zap.Logger) *ScriptHook {
	return &ScriptHook{dir: dir, prefix: prefix, logger: logger, store: make(map[uint64]raft.Term)}
}

func (h *ScriptHook) run(name string, args ...string) (string, bool) {
	path := filepath.Join(h.dir, h.prefix+name)
	cmd := exec.Command(path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		h.logger.Debug("hook script unavailable, using permissive fallback",
			zap.String("script", path), zap.Error(err))
		return "", false
	}
	return strings.TrimSpace(out.String()), true
}

func (h *ScriptHook) UpdateNode() bool {
	out, ok := h.run("update_node")
	if !ok {
		return true
	}
	return out != "0" && out != "false"
}

func (h *ScriptHook) PreAppendTerm(term raft.Term) (uint64, bool) {
	out, ok := h.run("pre_append_term", strconv.FormatUint(term.ID, 10), term.Content)
	if !ok {
		return term.ID, true
	}
	idx, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		h.logger.Warn("pre_append_term script returned non-numeric output", zap.String("output", out))
		return 0, false
	}
	return idx, true
}

func (h *ScriptHook) AppendTerm(term raft.Term) bool {
	h.run("append_term", strconv.FormatUint(term.ID, 10), term.Content)
	h.mu.Lock()
	h.store[term.ID] = term
	h.mu.Unlock()
	return true
}

func (h *ScriptHook) CommitTerm(term raft.Term) bool {
	h.run("commit_term", strconv.FormatUint(term.ID, 10), term.Content)
	return true
}

func (h *ScriptHook) PrepareTerm() string {
	out, ok := h.run("prepare_term")
	if !ok {
		h.mu.Lock()
		h.seq++
		seq := h.seq
		h.mu.Unlock()
		return "tick-" + strconv.FormatUint(seq, 10)
	}
	return out
}

func (h *ScriptHook) RetrieveTerm(id uint64) (raft.Term, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.store[id]
	return t, ok
}

func (h *ScriptHook) RetrieveTerms(from, to uint64) ([]raft.Term, bool) {
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

func (h *ScriptHook) SwitchStatus(role raft.Role) {
	h.run("switch_status", role.String())
}
