package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nornchain/go-norn/internal/api"
	"github.com/nornchain/go-norn/internal/chain"
	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/monitoring"
	"github.com/nornchain/go-norn/internal/p2p"
	"github.com/nornchain/go-norn/internal/producer"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/bus"
	"github.com/nornchain/go-norn/pkg/lifecycle"
	"github.com/nornchain/go-norn/pkg/logger"
)

func main() {
	var (
		apiAddr     string
		monAddr     string
		capacity    int
		lifetime    time.Duration
		maxPackage  int
		produceIntv time.Duration
		p2pEnable   bool
		p2pListen   string
		p2pBoot     string
		p2pNAT      bool
	)
	flag.StringVar(&apiAddr, "api", "127.0.0.1:4700", "API listen address")
	flag.StringVar(&monAddr, "monitoring", "127.0.0.1:4720", "Monitoring listen address")
	flag.IntVar(&capacity, "mempool.capacity", mempool.DefaultCapacity, "Max resident transactions in the mempool")
	flag.DurationVar(&lifetime, "mempool.lifetime", mempool.DefaultLifetime, "How long a transaction may stay in the mempool")
	flag.IntVar(&maxPackage, "mempool.max-package", mempool.DefaultMaxPackage, "Max transactions packaged per block")
	flag.DurationVar(&produceIntv, "produce.interval", producer.DefaultInterval, "Block production interval")
	flag.BoolVar(&p2pEnable, "p2p.enable", false, "Enable P2P transport (libp2p+gossipsub, behind 'p2p' build tag)")
	flag.StringVar(&p2pListen, "p2p.listen", "", "P2P listen multiaddr (e.g. /ip4/0.0.0.0/tcp/31000)")
	flag.StringVar(&p2pBoot, "p2p.bootnodes", "", "Comma-separated bootnode multiaddrs or path to file")
	flag.BoolVar(&p2pNAT, "p2p.nat", false, "Enable NAT port mapping")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool := mempool.New(mempool.Config{
		Capacity:   capacity,
		MaxPackage: maxPackage,
		Lifetime:   lifetime,
	})
	store := chain.NewStore()
	b := bus.New(256)

	apiSvc := api.New(apiAddr, pool)

	m := lifecycle.New()
	m.Add(apiSvc)
	m.Add(monitoring.New(monAddr))
	m.Add(mempool.NewSweeper(pool))
	m.Add(producer.New(pool, store, b, produceIntv))

	// P2P transport is behind the 'p2p' build tag; a safe no-op otherwise.
	if p2pEnable {
		cfg := p2p.NetConfig{Enable: true, NAT: p2pNAT, Bootnodes: parseBootnodes(p2pBoot)}
		if p2pListen != "" {
			cfg.Listen = []string{p2pListen}
		}
		if t, _ := p2p.StartTransportIfEnabled(ctx, cfg); t != nil {
			t.OnTx(func(tx *types.Transaction) {
				// Gossip ingestion: pool errors are local, nothing to do here.
				_ = pool.Add(tx)
			})
			apiSvc.SetTxBroadcaster(t)
			m.Add(p2p.NewNetService(t))
		}
	}

	if err := m.StartAll(ctx); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	<-ctx.Done()
	_ = m.StopAll(context.Background())
}

// parseBootnodes accepts a comma list of multiaddrs or a path to a file with
// one multiaddr per line.
func parseBootnodes(arg string) []string {
	if arg == "" {
		return nil
	}
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		raw, err := os.ReadFile(arg)
		if err != nil {
			return nil
		}
		var out []string
		for _, ln := range strings.Split(string(raw), "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				out = append(out, ln)
			}
		}
		return out
	}
	var out []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
