package raft

import "context"

// Transport is the outbound RPC capability the node depends on. Production
// code is served by raft/transport's HTTP/JSON client; tests inject a
// deterministic fake — the rearchitecture spec.md's Design Notes call for
// in place of the original's global mutable mock queues.
//
// Every method is a suspension point (spec.md §5) and must honor ctx
// cancellation/timeout. Failures are always Warnings: transport errors
// never terminate the node, they are counted and backed off by the caller.
type Transport interface {
	AppendEntries(ctx context.Context, peer string, input AppendEntriesInput) (AppendEntriesResult, error)
	RequestVote(ctx context.Context, peer string, input RequestVoteInput) (RequestVoteResult, error)
	UpdateNode(ctx context.Context, peer string, input UpdateNodeInput) (UpdateNodeResult, error)
}
