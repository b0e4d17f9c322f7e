package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrien-zinger/hook-raft/raft"
)

func TestHTTPTransportAppendEntriesSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/append_term", r.URL.Path)
		result := raft.AppendEntriesResult{CurrentTerm: raft.Term{ID: 3}, Success: true}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}))
	defer ts.Close()

	tr := NewHTTPTransport()
	peer := strings.TrimPrefix(ts.URL, "http://")

	result, err := tr.AppendEntries(context.Background(), peer, raft.AppendEntriesInput{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, uint64(3), result.CurrentTerm.ID)
}

func TestHTTPTransportSurfacesPeerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(raft.HTTPErrorResult{ErrID: raft.ErrIDUnknownLeader, Message: "redirect"})
	}))
	defer ts.Close()

	tr := NewHTTPTransport()
	peer := strings.TrimPrefix(ts.URL, "http://")

	_, err := tr.RequestVote(context.Background(), peer, raft.RequestVoteInput{})
	require.Error(t, err)
	var warning *raft.Warning
	require.ErrorAs(t, err, &warning)
	require.NotNil(t, warning.Peer)
	assert.Equal(t, raft.ErrIDUnknownLeader, warning.Peer.ErrID)
}
