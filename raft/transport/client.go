// Package transport provides the HTTP/JSON implementation of raft.Transport
// (spec.md §6) plus the server side that dispatches inbound requests to a
// Node. Keeping both in their own package, rather than inside raft itself,
// is what lets tests inject a fake raft.Transport without ever opening a
// socket (spec.md §9 Design Notes).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adrien-zinger/hook-raft/raft"
)

// HTTPTransport is the production raft.Transport: one shared *http.Client,
// POSTing JSON bodies to the three reserved endpoints of spec.md §6.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a transport backed by http.DefaultClient's
// defaults aside from using whatever deadline the caller's context carries.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{}}
}

func (t *HTTPTransport) AppendEntries(ctx context.Context, peer string, input raft.AppendEntriesInput) (raft.AppendEntriesResult, error) {
	var result raft.AppendEntriesResult
	err := t.post(ctx, peer, "/append_term", input, &result)
	return result, err
}

func (t *HTTPTransport) RequestVote(ctx context.Context, peer string, input raft.RequestVoteInput) (raft.RequestVoteResult, error) {
	var result raft.RequestVoteResult
	err := t.post(ctx, peer, "/request_vote", input, &result)
	return result, err
}

func (t *HTTPTransport) UpdateNode(ctx context.Context, peer string, input raft.UpdateNodeInput) (raft.UpdateNodeResult, error) {
	var result raft.UpdateNodeResult
	err := t.post(ctx, peer, "/update_node", input, &result)
	return result, err
}

func (t *HTTPTransport) post(ctx context.Context, peer, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &raft.Warning{Err: raft.ErrCommandFail, Context: err.Error()}
	}

	url := fmt.Sprintf("http://%s%s", peer, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &raft.Warning{Err: raft.ErrCommandFail, Context: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &raft.Warning{Err: raft.ErrTimeout, Context: err.Error()}
		}
		return &raft.Warning{Err: raft.ErrCommandFail, Context: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var peerErr raft.HTTPErrorResult
		if decodeErr := json.NewDecoder(resp.Body).Decode(&peerErr); decodeErr == nil {
			return &raft.Warning{Err: raft.ErrBadResult, Peer: &peerErr}
		}
		return &raft.Warning{Err: raft.ErrBadResult, Context: fmt.Sprintf("peer returned status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &raft.Warning{Err: raft.ErrWrongResult, Context: err.Error()}
	}
	return nil
}
