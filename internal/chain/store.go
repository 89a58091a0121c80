// Package chain keeps the node's committed blocks and answers
// transaction-by-hash lookups for the mempool packager. State execution and
// persistence live elsewhere; this store is the in-memory canonical index.
package chain

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/logger"
	"github.com/nornchain/go-norn/pkg/metrics"
)

// Recently confirmed transactions are exactly the set the packager probes, so
// a small cache in front of the index absorbs most lookups.
const txCacheSize = 4096

var ErrNonContiguous = errors.New("chain: block height not contiguous")

type Store struct {
	mu      sync.RWMutex
	blocks  []*types.Block
	txIndex map[types.Hash]*types.Transaction

	txCache *lru.Cache[types.Hash, *types.Transaction]
}

func NewStore() *Store {
	cache, _ := lru.New[types.Hash, *types.Transaction](txCacheSize)
	return &Store{
		txIndex: map[types.Hash]*types.Transaction{},
		txCache: cache,
	}
}

// Height returns the height of the latest committed block, 0 when empty.
func (s *Store) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.blocks) == 0 {
		return 0
	}
	return s.blocks[len(s.blocks)-1].Header.Height
}

// Commit appends a block and indexes its transactions. Heights must grow by
// exactly one.
func (s *Store) Commit(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := uint64(1)
	if n := len(s.blocks); n > 0 {
		want = s.blocks[n-1].Header.Height + 1
	}
	if block.Header.Height != want {
		return ErrNonContiguous
	}
	s.blocks = append(s.blocks, block)
	for _, tx := range block.Txs {
		s.txIndex[tx.Hash] = tx
		s.txCache.Add(tx.Hash, tx)
	}
	metrics.SetGauge("chain_height", nil, float64(block.Header.Height))
	metrics.AddGauge("chain_txs_total", nil, float64(len(block.Txs)))
	logger.InfoJ("chain_commit", map[string]any{
		"height": block.Header.Height, "txs": len(block.Txs), "fees": block.Stats.TotalFees,
	})
	return nil
}

// GetBlock returns the block at height, if committed.
func (s *Store) GetBlock(height uint64) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if height == 0 || int(height) > len(s.blocks) {
		return nil, false
	}
	return s.blocks[height-1], true
}

// GetTransactionByHash returns the confirmed transaction for hash, or nil.
// It satisfies mempool.ChainReader.
func (s *Store) GetTransactionByHash(_ context.Context, hash types.Hash) *types.Transaction {
	if tx, ok := s.txCache.Get(hash); ok {
		metrics.Inc("chain_tx_lookup_total", map[string]string{"result": "cache_hit"})
		return tx
	}
	s.mu.RLock()
	tx := s.txIndex[hash]
	s.mu.RUnlock()
	if tx == nil {
		metrics.Inc("chain_tx_lookup_total", map[string]string{"result": "miss"})
		return nil
	}
	s.txCache.Add(hash, tx)
	metrics.Inc("chain_tx_lookup_total", map[string]string{"result": "hit"})
	return tx
}
