// Package api exposes the node's HTTP surface: transaction submission,
// mempool introspection and a websocket stream of admitted transactions.
package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/lifecycle"
	"github.com/nornchain/go-norn/pkg/logger"
)

// txBroadcaster relays an accepted transaction to the network.
type txBroadcaster interface {
	BroadcastTx(ctx context.Context, tx *types.Transaction) error
}

type Service struct {
	addr string
	pool *mempool.Pool

	broadcaster txBroadcaster

	srv *http.Server

	upgrader websocket.Upgrader
	wsMu     sync.Mutex
	wsConns  map[*websocket.Conn]struct{}
}

func New(addr string, pool *mempool.Pool) *Service {
	return &Service{
		addr:    addr,
		pool:    pool,
		wsConns: map[*websocket.Conn]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Service) Name() string { return "api" }

// SetTxBroadcaster injects the network transport used to relay accepted
// transactions. Optional; without it submissions stay local.
func (s *Service) SetTxBroadcaster(b txBroadcaster) { s.broadcaster = b }

func (s *Service) Start(_ context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tx", s.handleSubmitTx)
	mux.HandleFunc("GET /v1/tx/{hash}", s.handleGetTx)
	mux.HandleFunc("GET /v1/mempool", s.handleMempoolStats)
	mux.HandleFunc("GET /v1/ws", s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.ErrorJ("api_serve", map[string]any{"err": err.Error()})
		}
	}()
	logger.InfoJ("api_start", map[string]any{"addr": ln.Addr().String()})
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.wsMu.Lock()
	for c := range s.wsConns {
		_ = c.Close()
	}
	s.wsConns = map[*websocket.Conn]struct{}{}
	s.wsMu.Unlock()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

var _ lifecycle.Service = (*Service)(nil)
