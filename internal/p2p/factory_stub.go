//go:build !p2p

package p2p

import (
	"context"

	"github.com/nornchain/go-norn/pkg/logger"
)

// StartTransportIfEnabled is a no-op without the 'p2p' build tag. It logs a
// warning when networking was requested so misbuilt binaries are visible.
func StartTransportIfEnabled(_ context.Context, cfg NetConfig) (Transport, error) {
	if cfg.Enable {
		logger.Warn("p2p requested but binary built without 'p2p' tag")
	}
	return nil, nil
}
