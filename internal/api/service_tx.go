package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/p2p/wire"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/logger"
	"github.com/nornchain/go-norn/pkg/metrics"
	"github.com/nornchain/go-norn/pkg/trace"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleSubmitTx decodes a wire tx, offers it to the pool and relays it to
// the network on success. Pool errors map to client responses; a duplicate is
// a no-op acknowledged with 200.
func (s *Service) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	ctx, tid := trace.Ensure(r.Context())
	var wtx wire.Tx
	if err := json.NewDecoder(r.Body).Decode(&wtx); err != nil {
		metrics.Inc("api_tx_total", map[string]string{"result": "bad_json"})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed json"})
		return
	}
	tx, err := wtx.ToInternal()
	if err != nil {
		metrics.Inc("api_tx_total", map[string]string{"result": "bad_tx"})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	switch err := s.pool.Add(tx); {
	case err == nil:
	case errors.Is(err, mempool.ErrDuplicate):
		metrics.Inc("api_tx_total", map[string]string{"result": "duplicate"})
		writeJSON(w, http.StatusOK, map[string]any{"result": "duplicate", "hash": tx.Hash.String()})
		return
	case errors.Is(err, mempool.ErrInvalidTransaction):
		metrics.Inc("api_tx_total", map[string]string{"result": "invalid"})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid transaction"})
		return
	case errors.Is(err, mempool.ErrUnderpriced):
		metrics.Inc("api_tx_total", map[string]string{"result": "underpriced"})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "replacement underpriced"})
		return
	case errors.Is(err, mempool.ErrPoolFull):
		metrics.Inc("api_tx_total", map[string]string{"result": "full"})
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "pool full, try higher fee"})
		return
	default:
		metrics.Inc("api_tx_total", map[string]string{"result": "error"})
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastTx(ctx, tx); err != nil {
			logger.ErrorJ("api_tx_broadcast", map[string]any{"hash": tx.Hash.String(), "err": err.Error(), "trace_id": tid})
		}
	}
	s.notifyTx(tx)
	metrics.Inc("api_tx_total", map[string]string{"result": "ok"})
	logger.InfoJ("api_tx", map[string]any{"hash": tx.Hash.String(), "from": tx.From.String(), "nonce": tx.Nonce, "trace_id": tid})
	writeJSON(w, http.StatusAccepted, map[string]any{"result": "accepted", "hash": tx.Hash.String()})
}

func (s *Service) handleGetTx(w http.ResponseWriter, r *http.Request) {
	hash, err := types.HashFromHex(r.PathValue("hash"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed hash"})
		return
	}
	tx, ok := s.pool.Get(hash)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not in pool"})
		return
	}
	writeJSON(w, http.StatusOK, wire.TxFromInternal(tx))
}

func (s *Service) handleMempoolStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pool.Stats())
}

// handleWS upgrades to a websocket that streams the hash of every
// transaction accepted through this node's API.
func (s *Service) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.wsMu.Lock()
	s.wsConns[conn] = struct{}{}
	s.wsMu.Unlock()
	// Reader loop only to detect close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.wsMu.Lock()
				delete(s.wsConns, conn)
				s.wsMu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func (s *Service) notifyTx(tx *types.Transaction) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for conn := range s.wsConns {
		msg := map[string]any{"event": "tx_admitted", "hash": tx.Hash.String()}
		if err := conn.WriteJSON(msg); err != nil {
			delete(s.wsConns, conn)
			_ = conn.Close()
		}
	}
}
