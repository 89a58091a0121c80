package bus

import (
	"context"
)

type Kind string

const (
	// KindTx is an inbound transaction delivered from the network transport
	// or the submission API into the internal bus.
	KindTx Kind = "tx"
	// KindBlock announces a locally committed block.
	KindBlock Kind = "block"
)

type Event struct {
	Kind    Kind
	Height  uint64
	Body    any
	TraceID string
}

type Subscriber chan Event

type Bus struct {
	pub chan Event
}

func New(size int) *Bus {
	if size <= 0 {
		size = 128
	}
	return &Bus{pub: make(chan Event, size)}
}

func (b *Bus) Publish(_ context.Context, ev Event) {
	select {
	case b.pub <- ev:
	default: /* drop on backpressure */
	}
}

func (b *Bus) Subscribe() Subscriber { return b.pub }
