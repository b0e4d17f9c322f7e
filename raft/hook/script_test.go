package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/adrien-zinger/hook-raft/raft"
)

// With no scripts installed under t.TempDir(), every callback must fall
// back permissively rather than blocking protocol progress on unwired
// application logic.
func TestScriptHookPermissiveFallbackWhenScriptsMissing(t *testing.T) {
	h := NewScriptHook(t.TempDir(), "hook_", zap.NewNop())

	assert.True(t, h.UpdateNode())

	idx, ok := h.PreAppendTerm(raft.Term{ID: 5})
	assert.True(t, ok)
	assert.Equal(t, uint64(5), idx)

	assert.True(t, h.AppendTerm(raft.Term{ID: 5, Content: "x"}))
	assert.True(t, h.CommitTerm(raft.Term{ID: 5, Content: "x"}))
	assert.NotEmpty(t, h.PrepareTerm())
}

func TestScriptHookRetainsAppendedTermsInMemory(t *testing.T) {
	h := NewScriptHook(t.TempDir(), "hook_", zap.NewNop())
	term := raft.Term{ID: 2, Content: "y"}
	h.AppendTerm(term)

	got, ok := h.RetrieveTerm(2)
	assert.True(t, ok)
	assert.Equal(t, term, got)
}
