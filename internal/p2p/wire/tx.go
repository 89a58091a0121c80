package wire

import (
	"errors"

	"github.com/nornchain/go-norn/internal/types"
)

// Topic names for pubsub channels (stable identifiers).
const (
	TopicTx    = "norn/tx/v1"
	TopicBlock = "norn/block/v1"
)

// Tx is the wire form of a transaction. JSON encoding uses lower_snake_case
// keys, hex strings for hashes/addresses and base64 for []byte fields.
type Tx struct {
	Hash         string  `json:"hash"`
	From         string  `json:"from"`
	To           string  `json:"to,omitempty"`
	Nonce        uint64  `json:"nonce"`
	Value        uint64  `json:"value"`
	GasLimit     uint64  `json:"gas_limit"`
	GasPrice     *uint64 `json:"gas_price,omitempty"`
	MaxFeePerGas *uint64 `json:"max_fee_per_gas,omitempty"`
	Input        []byte  `json:"input,omitempty"`
	Timestamp    int64   `json:"timestamp,omitempty"`
	Sig          []byte  `json:"sig,omitempty"`
}

// TxFromInternal converts an internal transaction to its wire form.
func TxFromInternal(tx *types.Transaction) Tx {
	w := Tx{
		Hash:         tx.Hash.String(),
		From:         tx.From.String(),
		Nonce:        tx.Nonce,
		Value:        tx.Value,
		GasLimit:     tx.GasLimit,
		GasPrice:     tx.GasPrice,
		MaxFeePerGas: tx.MaxFeePerGas,
		Input:        tx.Input,
		Timestamp:    tx.Timestamp,
		Sig:          tx.Sig,
	}
	if tx.To != nil {
		w.To = tx.To.String()
	}
	return w
}

// ToInternal converts the wire tx back to an internal transaction. The hash
// is recomputed when absent so the pool always indexes a real identifier.
func (w Tx) ToInternal() (*types.Transaction, error) {
	from, err := types.AddressFromHex(w.From)
	if err != nil {
		return nil, errors.New("wire: bad from address")
	}
	tx := &types.Transaction{
		From:         from,
		Nonce:        w.Nonce,
		Value:        w.Value,
		GasLimit:     w.GasLimit,
		GasPrice:     w.GasPrice,
		MaxFeePerGas: w.MaxFeePerGas,
		Input:        w.Input,
		Timestamp:    w.Timestamp,
		Sig:          w.Sig,
	}
	if w.To != "" {
		to, err := types.AddressFromHex(w.To)
		if err != nil {
			return nil, errors.New("wire: bad to address")
		}
		tx.To = &to
	}
	if w.Hash != "" {
		h, err := types.HashFromHex(w.Hash)
		if err != nil {
			return nil, errors.New("wire: bad hash")
		}
		tx.Hash = h
	} else {
		tx.Hash = tx.ComputeHash()
	}
	return tx, nil
}
