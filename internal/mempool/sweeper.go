package mempool

import (
	"context"

	"github.com/nornchain/go-norn/pkg/lifecycle"
)

// Sweeper periodically drops expired transactions from a pool. It runs far
// more often than the lifetime so entries expire close to their deadline.
type Sweeper struct {
	pool   *Pool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(pool *Pool) *Sweeper { return &Sweeper{pool: pool} }

func (s *Sweeper) Name() string { return "mempool-sweeper" }

func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	interval := s.pool.cfg.Lifetime / 60
	ticker := s.pool.cfg.Clock.Ticker(interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.pool.CleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Sweeper) Stop(_ context.Context) error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

var _ lifecycle.Service = (*Sweeper)(nil)
