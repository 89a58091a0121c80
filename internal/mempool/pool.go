// Package mempool holds transactions that have been observed but not yet
// included in a block, ordered by fee for block production. Admission applies
// replace-by-fee on (sender, nonce) conflicts and fee-based eviction at
// capacity; a sweeper drops entries older than the configured lifetime.
package mempool

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/logger"
	"github.com/nornchain/go-norn/pkg/metrics"
)

// ChainReader answers whether a transaction is already confirmed on the
// canonical chain. Package queries it without holding the pool lock.
type ChainReader interface {
	GetTransactionByHash(ctx context.Context, hash types.Hash) *types.Transaction
}

// slot identifies the single resident position a sender's nonce may occupy.
type slot struct {
	from  types.Address
	nonce uint64
}

// record is a resident transaction plus pool-internal metadata. Records are
// never mutated after insertion; a fee bump removes the old record and
// inserts a fresh one with a new sequence number.
type record struct {
	tx         *types.Transaction
	fee        uint64
	seq        uint64
	admittedAt time.Time
}

// Stats is a consistent point-in-time view of the pool.
type Stats struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	AvgFee   uint64 `json:"avg_fee"`
}

// Pool is safe for concurrent use. The hash index, the (sender, nonce) index
// and the record metadata form one unit guarded by a single mutex; every
// operation sees either none or all of an admission's effects. Lock hold
// times are pure in-memory work, so the producer path is never starved.
type Pool struct {
	cfg Config

	mu      sync.Mutex
	byHash  map[types.Hash]*record
	bySlot  map[slot]types.Hash
	nextSeq uint64
}

func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		cfg:    cfg,
		byHash: map[types.Hash]*record{},
		bySlot: map[slot]types.Hash{},
	}
}

// Add admits a transaction. It returns ErrInvalidTransaction,
// ErrDuplicate, ErrUnderpriced or ErrPoolFull; on any error the pool is
// unchanged. Replacement and eviction are decided and applied atomically.
func (p *Pool) Add(tx *types.Transaction) error {
	fee, ok := tx.EffectiveFee()
	if !ok || tx.From.IsZero() || tx.Hash.IsZero() {
		metrics.Inc("mempool_in_total", map[string]string{"result": "invalid"})
		return ErrInvalidTransaction
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byHash[tx.Hash]; exists {
		metrics.Inc("mempool_in_total", map[string]string{"result": "dup"})
		return ErrDuplicate
	}

	s := slot{from: tx.From, nonce: tx.Nonce}
	if oldHash, exists := p.bySlot[s]; exists {
		old := p.byHash[oldHash]
		var increase uint64
		if fee > old.fee {
			increase = fee - old.fee
		}
		// Replacement needs at least a 10% fee bump over the resident tx.
		if increase < old.fee/10 {
			metrics.Inc("mempool_in_total", map[string]string{"result": "underpriced"})
			return ErrUnderpriced
		}
		p.dropLocked(old, "replaced")
		p.insertLocked(tx, fee)
		metrics.Inc("mempool_in_total", map[string]string{"result": "replace"})
		logger.InfoJ("mempool_replace", map[string]any{
			"old": oldHash.String(), "new": tx.Hash.String(),
			"from": tx.From.String(), "nonce": tx.Nonce,
			"old_fee": old.fee, "new_fee": fee,
		})
		return nil
	}

	if len(p.byHash) >= p.cfg.Capacity {
		victim := p.weakestLocked()
		if victim == nil || fee <= victim.fee {
			metrics.Inc("mempool_in_total", map[string]string{"result": "full"})
			return ErrPoolFull
		}
		p.dropLocked(victim, "capacity")
		logger.InfoJ("mempool_evict", map[string]any{
			"hash": victim.tx.Hash.String(), "fee": victim.fee, "new_fee": fee,
		})
	}

	p.insertLocked(tx, fee)
	metrics.Inc("mempool_in_total", map[string]string{"result": "ok"})
	return nil
}

// insertLocked adds tx under a fresh sequence number. Caller holds p.mu and
// has already cleared both index positions.
func (p *Pool) insertLocked(tx *types.Transaction, fee uint64) {
	rec := &record{
		tx:         tx,
		fee:        fee,
		seq:        p.nextSeq,
		admittedAt: p.cfg.Clock.Now(),
	}
	p.nextSeq++
	p.byHash[tx.Hash] = rec
	p.bySlot[slot{from: tx.From, nonce: tx.Nonce}] = tx.Hash
	metrics.SetGauge("mempool_size", nil, float64(len(p.byHash)))
}

// dropLocked removes a record from both indices. Caller holds p.mu.
func (p *Pool) dropLocked(rec *record, reason string) {
	delete(p.byHash, rec.tx.Hash)
	delete(p.bySlot, slot{from: rec.tx.From, nonce: rec.tx.Nonce})
	metrics.Inc("mempool_evicted_total", map[string]string{"reason": reason})
	metrics.SetGauge("mempool_size", nil, float64(len(p.byHash)))
}

// weakestLocked returns the record with the lowest priority key: the lowest
// fee, and among equal fees the most recently inserted. Caller holds p.mu.
func (p *Pool) weakestLocked() *record {
	var weakest *record
	for _, rec := range p.byHash {
		if weakest == nil || rec.fee < weakest.fee ||
			(rec.fee == weakest.fee && rec.seq > weakest.seq) {
			weakest = rec
		}
	}
	return weakest
}

// Contains reports whether the hash is resident.
func (p *Pool) Contains(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byHash[hash]
	return ok
}

// Get returns the resident transaction for hash, if any.
func (p *Pool) Get(hash types.Hash) (*types.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byHash[hash]
	if !ok {
		return nil, false
	}
	return rec.tx, true
}

// Len reports the number of resident transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}

// Stats returns a consistent size/fee snapshot.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Stats{Size: len(p.byHash), Capacity: p.cfg.Capacity}
	if st.Size == 0 {
		return st
	}
	var total uint64
	for _, rec := range p.byHash {
		total += rec.fee
	}
	st.AvgFee = total / uint64(st.Size)
	return st
}

// Package returns up to MaxPackage transactions ordered by (fee descending,
// insertion sequence ascending), excluding any already confirmed on chain.
// It does not mutate the pool; the producer removes transactions explicitly
// once their block commits. The chain is queried after the snapshot is taken
// so no I/O happens under the pool lock.
func (p *Pool) Package(ctx context.Context, chain ChainReader) []*types.Transaction {
	p.mu.Lock()
	snapshot := make([]*record, 0, len(p.byHash))
	for _, rec := range p.byHash {
		snapshot = append(snapshot, rec)
	}
	p.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].fee != snapshot[j].fee {
			return snapshot[i].fee > snapshot[j].fee
		}
		return snapshot[i].seq < snapshot[j].seq
	})

	begin := time.Now()
	out := make([]*types.Transaction, 0, len(snapshot))
	for _, rec := range snapshot {
		if len(out) >= p.cfg.MaxPackage {
			break
		}
		// Skip transactions that reached the chain through a path the pool
		// did not observe, e.g. mined from another peer's pool.
		if chain.GetTransactionByHash(ctx, rec.tx.Hash) != nil {
			metrics.Inc("mempool_package_skipped_total", map[string]string{"reason": "chained"})
			continue
		}
		out = append(out, rec.tx)
	}
	metrics.ObserveSummary("mempool_package_ms", nil, float64(time.Since(begin).Milliseconds()))
	return out
}

// Remove deletes a single transaction, reporting whether it was resident.
func (p *Pool) Remove(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.byHash[hash]
	if !ok {
		return false
	}
	p.dropLocked(rec, "removed")
	return true
}

// RemoveIncluded deletes the transactions of a committed block. Unknown
// hashes are ignored; the count of removed entries is returned.
func (p *Pool) RemoveIncluded(hashes []types.Hash) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for _, h := range hashes {
		if rec, ok := p.byHash[h]; ok {
			p.dropLocked(rec, "included")
			removed++
		}
	}
	return removed
}

// CleanupExpired removes every transaction whose age exceeds the configured
// lifetime and returns the count removed.
func (p *Pool) CleanupExpired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.cfg.Clock.Now()
	removed := 0
	for _, rec := range p.byHash {
		if now.Sub(rec.admittedAt) > p.cfg.Lifetime {
			p.dropLocked(rec, "expired")
			removed++
		}
	}
	if removed > 0 {
		logger.InfoJ("mempool_expire", map[string]any{"removed": removed, "size": len(p.byHash)})
	}
	return removed
}
