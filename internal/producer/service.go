// Package producer drives block production: on its cadence it packages the
// mempool against the chain, commits the assembled block, and tells the pool
// which transactions were included. Leader election and proof verification
// are out of scope here; this loop is the packaging consumer of the pool.
package producer

import (
	"context"
	"time"

	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/bus"
	"github.com/nornchain/go-norn/pkg/lifecycle"
	"github.com/nornchain/go-norn/pkg/logger"
	"github.com/nornchain/go-norn/pkg/metrics"
	"github.com/nornchain/go-norn/pkg/trace"
)

const DefaultInterval = 5 * time.Second

// Pool is the slice of the mempool the producer consumes.
type Pool interface {
	Package(ctx context.Context, chain mempool.ChainReader) []*types.Transaction
	RemoveIncluded(hashes []types.Hash) int
}

// Chain is the committed-block store the producer extends.
type Chain interface {
	mempool.ChainReader
	Height() uint64
	Commit(block *types.Block) error
}

type Service struct {
	pool     Pool
	chain    Chain
	bus      *bus.Bus
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func New(pool Pool, chain Chain, b *bus.Bus, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{pool: pool, chain: chain, bus: b, interval: interval}
}

func (s *Service) Name() string { return "producer" }

func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.produce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Service) Stop(_ context.Context) error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

// produce assembles and commits one block. Empty batches are skipped.
func (s *Service) produce(ctx context.Context) {
	ctx, tid := trace.Ensure(ctx)
	begin := time.Now()
	txs := s.pool.Package(ctx, s.chain)
	if len(txs) == 0 {
		return
	}
	block := &types.Block{
		Header: types.BlockHeader{
			Height:    s.chain.Height() + 1,
			Timestamp: time.Now().Unix(),
		},
		Txs:   txs,
		Stats: types.SummarizeStats(txs),
	}
	if err := s.chain.Commit(block); err != nil {
		metrics.Inc("producer_blocks_total", map[string]string{"result": "commit_error"})
		logger.ErrorJ("producer_commit", map[string]any{"err": err.Error(), "height": block.Header.Height, "trace_id": tid})
		return
	}
	hashes := make([]types.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash
	}
	removed := s.pool.RemoveIncluded(hashes)

	metrics.Inc("producer_blocks_total", map[string]string{"result": "ok"})
	metrics.AddGauge("producer_txs_total", nil, float64(len(txs)))
	metrics.ObserveSummary("producer_build_ms", nil, float64(time.Since(begin).Milliseconds()))
	logger.InfoJ("producer_block", map[string]any{
		"height": block.Header.Height, "txs": len(txs), "removed": removed,
		"fees": block.Stats.TotalFees, "trace_id": tid,
	})
	if s.bus != nil {
		s.bus.Publish(ctx, bus.Event{Kind: bus.KindBlock, Height: block.Header.Height, Body: block, TraceID: tid})
	}
}

var _ lifecycle.Service = (*Service)(nil)
