package mempool

import "errors"

// Admission failures. All are local to the offending submission; none leave
// the pool in a modified state.
var (
	// ErrInvalidTransaction rejects a structurally malformed transaction
	// (missing fee, zero sender, zero hash).
	ErrInvalidTransaction = errors.New("mempool: invalid transaction")
	// ErrDuplicate rejects a hash that is already resident.
	ErrDuplicate = errors.New("mempool: duplicate transaction")
	// ErrUnderpriced rejects a replacement whose fee increase is below the
	// bump threshold for its (sender, nonce) slot.
	ErrUnderpriced = errors.New("mempool: replacement underpriced")
	// ErrPoolFull rejects an admission when the pool is at capacity and the
	// incoming fee does not beat the weakest resident.
	ErrPoolFull = errors.New("mempool: pool full")
)
