package types

// BlockHeader carries minimal coordinates for a produced block.
type BlockHeader struct {
	Height    uint64
	Timestamp int64
}

// BlockStats captures aggregate value for a block selection.
type BlockStats struct {
	TotalFees uint64
	Items     int
}

// Block is a container for packaged transactions under a header.
type Block struct {
	Header BlockHeader
	Txs    []*Transaction
	Stats  BlockStats
}

// SummarizeStats computes aggregate fees for a block selection.
func SummarizeStats(txs []*Transaction) BlockStats {
	var stats BlockStats
	stats.Items = len(txs)
	for _, tx := range txs {
		if fee, ok := tx.EffectiveFee(); ok {
			stats.TotalFees += fee
		}
	}
	return stats
}
