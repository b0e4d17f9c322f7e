package raft

import (
	"errors"
	"fmt"
)

// Fatal errors are propagated up to the process entry point and cause a
// non-zero exit. They represent conditions the protocol cannot recover
// from: bad configuration, a dead RPC server, a failed bootstrap, or an
// illegal role transition. Hook contract violations are not among them:
// the receive path panics on those.
var (
	ErrCannotReadSettings    = errors.New("cannot read settings")
	ErrCannotStartRPCServer  = errors.New("cannot start rpc server")
	ErrInitializationFail    = errors.New("initialization failed")
	ErrImpossibleToBootstrap = errors.New("impossible to bootstrap: no seed peer reachable")
	ErrWrongStatus           = errors.New("illegal role transition")
)

// FatalError wraps one of the sentinel errors above with context. It
// unwraps to the sentinel so callers can use errors.Is.
type FatalError struct {
	Err     error
	Context string
}

func (e *FatalError) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Context)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(err error, context string) *FatalError {
	return &FatalError{Err: err, Context: context}
}

// Warnings are recoverable: the direct caller logs and handles them, they
// never terminate the node. Outbound RPC failures are always warnings.
var (
	ErrCommandFail  = errors.New("command failed")
	ErrTimeout      = errors.New("request timed out")
	ErrBadResult    = errors.New("peer returned an error result")
	ErrWrongResult  = errors.New("unexpected result shape")
)

// Warning wraps one of the sentinel warnings above, optionally carrying the
// peer's HTTPErrorResult when the peer replied with a structured error body.
type Warning struct {
	Err     error
	Context string
	Peer    *HTTPErrorResult
}

func (w *Warning) Error() string {
	if w.Peer != nil {
		return fmt.Sprintf("%s: %s (peer err_id=%s: %s)", w.Err.Error(), w.Context, w.Peer.ErrID, w.Peer.Message)
	}
	if w.Context == "" {
		return w.Err.Error()
	}
	return fmt.Sprintf("%s: %s", w.Err.Error(), w.Context)
}

func (w *Warning) Unwrap() error { return w.Err }
