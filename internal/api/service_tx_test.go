package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nornchain/go-norn/internal/mempool"
	"github.com/nornchain/go-norn/internal/p2p/wire"
	"github.com/nornchain/go-norn/internal/types"
	"github.com/nornchain/go-norn/pkg/metrics"
)

// stubBroadcaster implements txBroadcaster for tests.
type stubBroadcaster struct {
	calls int
	last  *types.Transaction
}

func (s *stubBroadcaster) BroadcastTx(_ context.Context, tx *types.Transaction) error {
	s.calls++
	s.last = tx
	return nil
}

func newTestService() *Service {
	metrics.Reset()
	return New("127.0.0.1:0", mempool.New(mempool.Config{}))
}

func wireTx(sender byte, nonce, fee uint64) wire.Tx {
	var from types.Address
	from[0] = sender
	return wire.Tx{From: from.String(), Nonce: nonce, GasLimit: 21000, GasPrice: &fee}
}

func submit(t *testing.T, s *Service, wtx wire.Tx) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(wtx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/tx", bytes.NewReader(b))
	rr := httptest.NewRecorder()
	s.handleSubmitTx(rr, req)
	return rr
}

func TestHandleSubmitTx_AcceptAndBroadcast(t *testing.T) {
	s := newTestService()
	sb := &stubBroadcaster{}
	s.SetTxBroadcaster(sb)

	rr := submit(t, s, wireTx(1, 0, 100))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	if sb.calls != 1 || sb.last == nil {
		t.Fatalf("expected one broadcast, got %d", sb.calls)
	}
	if s.pool.Len() != 1 {
		t.Fatalf("tx must be in the pool")
	}
}

func TestHandleSubmitTx_Duplicate(t *testing.T) {
	s := newTestService()
	wtx := wireTx(1, 0, 100)
	if rr := submit(t, s, wtx); rr.Code != http.StatusAccepted {
		t.Fatalf("first submit: %d", rr.Code)
	}
	rr := submit(t, s, wtx)
	if rr.Code != http.StatusOK {
		t.Fatalf("duplicate must be acknowledged with 200, got %d", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["result"] != "duplicate" {
		t.Fatalf("want duplicate result, got %v", body)
	}
	if s.pool.Len() != 1 {
		t.Fatalf("duplicate must not grow the pool")
	}
}

func TestHandleSubmitTx_Underpriced(t *testing.T) {
	s := newTestService()
	if rr := submit(t, s, wireTx(1, 0, 100)); rr.Code != http.StatusAccepted {
		t.Fatalf("first submit: %d", rr.Code)
	}
	rr := submit(t, s, wireTx(1, 0, 105))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("underpriced replacement must be 400, got %d", rr.Code)
	}
}

func TestHandleSubmitTx_PoolFull(t *testing.T) {
	metrics.Reset()
	s := New("127.0.0.1:0", mempool.New(mempool.Config{Capacity: 1}))
	if rr := submit(t, s, wireTx(1, 0, 100)); rr.Code != http.StatusAccepted {
		t.Fatalf("first submit: %d", rr.Code)
	}
	rr := submit(t, s, wireTx(2, 0, 50))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("pool full must be 503, got %d", rr.Code)
	}
}

func TestHandleSubmitTx_InvalidJSON(t *testing.T) {
	s := newTestService()
	req := httptest.NewRequest(http.MethodPost, "/v1/tx", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.handleSubmitTx(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleSubmitTx_MissingFee(t *testing.T) {
	s := newTestService()
	wtx := wireTx(1, 0, 0)
	wtx.GasPrice = nil
	rr := submit(t, s, wtx)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing fee must be 400, got %d", rr.Code)
	}
}

func TestHandleMempoolStats(t *testing.T) {
	s := newTestService()
	_ = submit(t, s, wireTx(1, 0, 100))
	req := httptest.NewRequest(http.MethodGet, "/v1/mempool", nil)
	rr := httptest.NewRecorder()
	s.handleMempoolStats(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st mempool.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Size != 1 {
		t.Fatalf("want size 1, got %d", st.Size)
	}
}

func TestHandleGetTx(t *testing.T) {
	s := newTestService()
	wtx := wireTx(1, 0, 100)
	rr := submit(t, s, wtx)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("submit: %d", rr.Code)
	}
	var accepted map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &accepted)

	req := httptest.NewRequest(http.MethodGet, "/v1/tx/"+accepted["hash"], nil)
	req.SetPathValue("hash", accepted["hash"])
	get := httptest.NewRecorder()
	s.handleGetTx(get, req)
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}

	var zero types.Hash
	req = httptest.NewRequest(http.MethodGet, "/v1/tx/"+zero.String(), nil)
	req.SetPathValue("hash", zero.String())
	miss := httptest.NewRecorder()
	s.handleGetTx(miss, req)
	if miss.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", miss.Code)
	}
}
