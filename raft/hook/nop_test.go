package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrien-zinger/hook-raft/raft"
)

func TestNopHookAppendThenRetrieve(t *testing.T) {
	h := NewNopHook()
	term := raft.Term{ID: 1, Content: "a"}

	assert.True(t, h.AppendTerm(term))

	got, ok := h.RetrieveTerm(1)
	require.True(t, ok)
	assert.Equal(t, term, got)
}

func TestNopHookRetrieveTermsRequiresFullRange(t *testing.T) {
	h := NewNopHook()
	h.AppendTerm(raft.Term{ID: 1})
	h.AppendTerm(raft.Term{ID: 3})

	_, ok := h.RetrieveTerms(1, 3)
	assert.False(t, ok, "a gap at id 2 must make the range unavailable")

	h.AppendTerm(raft.Term{ID: 2})
	got, ok := h.RetrieveTerms(1, 3)
	require.True(t, ok)
	assert.Len(t, got, 3)
}

func TestNopHookPrepareTermIncrements(t *testing.T) {
	h := NewNopHook()
	first := h.PrepareTerm()
	second := h.PrepareTerm()
	assert.NotEqual(t, first, second)
}

func TestNopHookPreAppendTermAlwaysAccepts(t *testing.T) {
	h := NewNopHook()
	idx, ok := h.PreAppendTerm(raft.Term{ID: 7})
	assert.True(t, ok)
	assert.Equal(t, uint64(7), idx)
}
