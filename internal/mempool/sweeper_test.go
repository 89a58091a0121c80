package mempool

import (
	"context"
	"testing"
	"time"
)

func TestSweeper_RemovesExpired(t *testing.T) {
	p := newTestPool(Config{Lifetime: 60 * time.Millisecond})
	tx := mkTx(1, 0, 100)
	if err := p.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}

	s := NewSweeper(p)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !p.Contains(tx.Hash) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sweeper did not remove expired tx")
}

func TestSweeper_StopIsIdempotentBeforeStart(t *testing.T) {
	s := NewSweeper(newTestPool(Config{}))
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
}
