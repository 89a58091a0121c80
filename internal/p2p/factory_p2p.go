//go:build p2p

package p2p

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	p2phost "github.com/libp2p/go-libp2p/core/host"
	peer "github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/nornchain/go-norn/internal/p2p/wire"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/logger"
	"github.com/nornchain/go-norn/pkg/metrics"
)

// A gossiped tx is usually seen once per peer; the seen cache stops the same
// hash from being decoded and offered to the pool repeatedly.
const seenCacheSize = 8192

// BuildTransport constructs a libp2p+gossipsub transport.
func BuildTransport(cfg NetConfig) (Transport, error) {
	seen, err := lru.New[types.Hash, struct{}](seenCacheSize)
	if err != nil {
		return nil, err
	}
	return &Libp2pTransport{cfg: cfg, seen: seen}, nil
}

// StartTransportIfEnabled starts the libp2p transport when cfg.Enable is true.
func StartTransportIfEnabled(ctx context.Context, cfg NetConfig) (Transport, error) {
	if !cfg.Enable {
		return nil, nil
	}
	t, err := BuildTransport(cfg)
	if err != nil {
		logger.ErrorJ("p2p_transport", map[string]any{"result": "error", "err": err.Error()})
		return nil, err
	}
	if err := t.Start(ctx); err != nil {
		logger.ErrorJ("p2p_transport", map[string]any{"result": "start_error", "err": err.Error()})
		return nil, err
	}
	return t, nil
}

// Libp2pTransport implements the Transport interface using libp2p + gossipsub.
type Libp2pTransport struct {
	cfg   NetConfig
	host  p2phost.Host
	ps    *pubsub.PubSub
	tt    *pubsub.Topic
	subTx *pubsub.Subscription
	onTx  func(*types.Transaction)
	seen  *lru.Cache[types.Hash, struct{}]
}

func (t *Libp2pTransport) Start(ctx context.Context) error {
	if !t.cfg.Enable {
		return nil
	}
	opts := []libp2p.Option{}
	if len(t.cfg.Listen) > 0 {
		var addrs []ma.Multiaddr
		for _, s := range t.cfg.Listen {
			if strings.TrimSpace(s) == "" {
				continue
			}
			a, err := ma.NewMultiaddr(s)
			if err != nil {
				return err
			}
			addrs = append(addrs, a)
		}
		if len(addrs) > 0 {
			opts = append(opts, libp2p.ListenAddrs(addrs...))
		}
	}
	if t.cfg.NAT {
		opts = append(opts, libp2p.NATPortMap())
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return err
	}
	t.host = h
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return err
	}
	t.ps = ps
	if t.tt, err = ps.Join(wire.TopicTx); err != nil {
		return err
	}
	if t.subTx, err = t.tt.Subscribe(); err != nil {
		return err
	}

	// connect bootnodes (best effort)
	for _, b := range t.cfg.Bootnodes {
		if strings.TrimSpace(b) == "" {
			continue
		}
		_ = connectOnce(ctx, h, b)
	}

	// Log self peer id and listen addrs for operators to copy into bootnodes.
	for _, a := range h.Addrs() {
		logger.InfoJ("p2p_addr", map[string]any{"self_id": h.ID().String(), "addr": a.String()})
	}

	go t.loopTx(ctx)
	logger.InfoJ("p2p_start", map[string]any{"result": "ok"})
	return nil
}

func (t *Libp2pTransport) Stop(_ context.Context) error {
	if t.subTx != nil {
		t.subTx.Cancel()
	}
	if t.tt != nil {
		_ = t.tt.Close()
	}
	if t.host != nil {
		return t.host.Close()
	}
	return nil
}

func (t *Libp2pTransport) BroadcastTx(_ context.Context, tx *types.Transaction) error {
	if t.tt == nil {
		return errors.New("p2p not started")
	}
	b, err := json.Marshal(wire.TxFromInternal(tx))
	if err != nil {
		return err
	}
	if err := t.tt.Publish(context.Background(), b); err != nil {
		metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "tx", "result": "error"})
		return err
	}
	metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "tx", "result": "ok"})
	metrics.AddGauge(MetricP2PBytesTotal, map[string]string{"topic": wire.TopicTx, "direction": "tx"}, float64(len(b)))
	return nil
}

func (t *Libp2pTransport) OnTx(fn func(*types.Transaction)) { t.onTx = fn }

func (t *Libp2pTransport) loopTx(ctx context.Context) {
	for {
		m, err := t.subTx.Next(ctx)
		if err != nil {
			return
		}
		var w wire.Tx
		if err := json.Unmarshal(m.Data, &w); err != nil {
			metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "rx", "result": "decode_error"})
			continue
		}
		tx, err := w.ToInternal()
		if err != nil {
			metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "rx", "result": "decode_error"})
			continue
		}
		if dup, _ := t.seen.ContainsOrAdd(tx.Hash, struct{}{}); dup {
			metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "rx", "result": "seen"})
			continue
		}
		metrics.Inc(MetricP2PMessagesTotal, map[string]string{"topic": wire.TopicTx, "direction": "rx", "result": "ok"})
		metrics.AddGauge(MetricP2PBytesTotal, map[string]string{"topic": wire.TopicTx, "direction": "rx"}, float64(len(m.Data)))
		if t.onTx != nil {
			t.onTx(tx)
		}
	}
}

func connectOnce(ctx context.Context, h p2phost.Host, addr string) error {
	a, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(a)
	if err != nil {
		return err
	}
	if err := h.Connect(ctx, *info); err != nil {
		logger.ErrorJ("p2p_connect", map[string]any{"addr": addr, "err": err.Error()})
		return err
	}
	logger.InfoJ("p2p_connect", map[string]any{"addr": addr, "result": "ok"})
	return nil
}
