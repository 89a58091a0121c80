package producer

import (
	"context"
	"testing"
	"time"

	"github.com/nornchain/go-norn/internal/chain"
	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/bus"
	"github.com/nornchain/go-norn/pkg/metrics"
)

func mkTx(sender byte, nonce, fee uint64) *types.Transaction {
	var from types.Address
	from[0] = sender
	tx := &types.Transaction{From: from, Nonce: nonce, GasPrice: &fee}
	tx.Hash = tx.ComputeHash()
	return tx
}

func TestProduce_CommitsAndDrainsPool(t *testing.T) {
	metrics.Reset()
	pool := mempool.New(mempool.Config{})
	store := chain.NewStore()
	b := bus.New(8)
	s := New(pool, store, b, time.Second)

	tx1 := mkTx(1, 0, 100)
	tx2 := mkTx(2, 0, 200)
	if err := pool.Add(tx1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := pool.Add(tx2); err != nil {
		t.Fatalf("add: %v", err)
	}

	s.produce(context.Background())

	if store.Height() != 1 {
		t.Fatalf("want one committed block, height=%d", store.Height())
	}
	block, ok := store.GetBlock(1)
	if !ok || len(block.Txs) != 2 {
		t.Fatalf("block must hold both txs")
	}
	if fee, _ := block.Txs[0].EffectiveFee(); fee != 200 {
		t.Fatalf("block must be fee-ordered, first fee %d", fee)
	}
	if pool.Len() != 0 {
		t.Fatalf("included txs must leave the pool, len=%d", pool.Len())
	}

	select {
	case ev := <-b.Subscribe():
		if ev.Kind != bus.KindBlock || ev.Height != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("block event must be published")
	}
}

func TestProduce_SkipsEmptyBatch(t *testing.T) {
	metrics.Reset()
	pool := mempool.New(mempool.Config{})
	store := chain.NewStore()
	s := New(pool, store, nil, time.Second)

	s.produce(context.Background())

	if store.Height() != 0 {
		t.Fatalf("empty pool must not produce a block")
	}
}

func TestProduce_SecondBlockExcludesChained(t *testing.T) {
	metrics.Reset()
	pool := mempool.New(mempool.Config{})
	store := chain.NewStore()
	s := New(pool, store, nil, time.Second)

	tx := mkTx(1, 0, 100)
	_ = pool.Add(tx)
	s.produce(context.Background())

	// The same tx arriving again (e.g. late gossip) must not be re-packaged.
	_ = pool.Add(tx)
	s.produce(context.Background())

	if store.Height() != 1 {
		t.Fatalf("re-gossiped chained tx must not form a block, height=%d", store.Height())
	}
}
