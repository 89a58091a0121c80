package p2p

import (
	"context"

	"github.com/nornchain/go-norn/internal/types"
)

// Transport is the minimal P2P abstraction the node consumes. The concrete
// libp2p+gossipsub implementation is behind the 'p2p' build tag; without it
// the node runs with the no-op transport.
type Transport interface {
	// Start brings up the network stack and subscriptions.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the network stack and subscriptions.
	Stop(ctx context.Context) error

	// BroadcastTx publishes a transaction to the tx topic.
	BroadcastTx(ctx context.Context, tx *types.Transaction) error
	// OnTx registers a handler invoked on each inbound transaction.
	OnTx(fn func(*types.Transaction))
}

// NoopTransport satisfies the interface without any network I/O.
type NoopTransport struct {
	onTx func(*types.Transaction)
}

func (n *NoopTransport) Start(_ context.Context) error { return nil }
func (n *NoopTransport) Stop(_ context.Context) error  { return nil }

func (n *NoopTransport) BroadcastTx(_ context.Context, _ *types.Transaction) error { return nil }

func (n *NoopTransport) OnTx(fn func(*types.Transaction)) { n.onTx = fn }
