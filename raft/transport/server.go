package transport

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/adrien-zinger/hook-raft/raft"
)

// Server dispatches the three reserved POST endpoints of spec.md §6 to a
// Node, routed with gorilla/mux.
type Server struct {
	node   *raft.Node
	logger *zap.Logger
	http   *http.Server
}

// NewServer builds the router and binds it to addr:port, but does not
// start listening — call ListenAndServe.
func NewServer(node *raft.Node, addr, port string, logger *zap.Logger) *Server {
	s := &Server{node: node, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/update_node", s.handleUpdateNode).Methods(http.MethodPost)
	router.HandleFunc("/append_term", s.handleAppendEntries).Methods(http.MethodPost)
	router.HandleFunc("/request_vote", s.handleRequestVote).Methods(http.MethodPost)
	router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	s.http = &http.Server{Addr: addr + ":" + port, Handler: router}
	return s
}

// ListenAndServe blocks serving until the server is shut down, returning
// http.ErrServerClosed on a clean Shutdown.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var input raft.UpdateNodeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, raft.HTTPErrorResult{ErrID: raft.ErrIDAppendTermGeneric, Message: "malformed body"})
		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	info := raft.NodeInfo{Hash: input.Hash, Addr: host + ":" + input.Port, Follower: input.Follower}

	result, err := s.node.ReceiveConnectionRequest(info)
	if err != nil {
		if peerErr, ok := err.(*raft.HTTPErrorResult); ok {
			writeError(w, http.StatusConflict, *peerErr)
			return
		}
		writeError(w, http.StatusInternalServerError, raft.HTTPErrorResult{ErrID: raft.ErrIDAppendTermGeneric, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAppendEntries(w http.ResponseWriter, r *http.Request) {
	var input raft.AppendEntriesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, raft.HTTPErrorResult{ErrID: raft.ErrIDAppendTermGeneric, Message: "malformed body"})
		return
	}
	result := s.node.ReceiveAppendEntries(r.Context(), input)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRequestVote(w http.ResponseWriter, r *http.Request) {
	var input raft.RequestVoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, raft.HTTPErrorResult{ErrID: raft.ErrIDAppendTermGeneric, Message: "malformed body"})
		return
	}
	result := s.node.ReceiveRequestVote(input)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("unknown route", zap.String("path", r.URL.Path))
	writeError(w, http.StatusNotFound, raft.HTTPErrorResult{ErrID: raft.ErrIDAppendTermGeneric, Message: "unknown route"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body raft.HTTPErrorResult) {
	writeJSON(w, status, body)
}
