// Package types holds the chain-level value types shared across the node.
package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// Hash is a 32-byte content identifier.
type Hash [32]byte

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool { return h == Hash{} }

// HashFromHex parses a 0x-prefixed or bare 64-char hex string.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, errors.New("hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// Address is a 20-byte account identifier.
type Address [20]byte

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// IsZero reports whether the address is all zeroes.
func (a Address) IsZero() bool { return a == Address{} }

// AddressFromHex parses a 0x-prefixed or bare 40-char hex string.
func AddressFromHex(s string) (Address, error) {
	var a Address
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(b) != len(a) {
		return a, errors.New("address must be 20 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// Transaction is an immutable candidate transaction. The mempool references
// it but never mutates it; semantic validation (balance, nonce against state,
// signature) belongs to the execution layer.
type Transaction struct {
	Hash         Hash
	From         Address
	To           *Address
	Nonce        uint64
	Value        uint64
	GasLimit     uint64
	GasPrice     *uint64
	MaxFeePerGas *uint64
	Input        []byte
	Timestamp    int64
	Sig          []byte
}

// EffectiveFee returns the priority-bearing fee: MaxFeePerGas when present,
// otherwise GasPrice. ok is false when neither field is set.
func (tx *Transaction) EffectiveFee() (uint64, bool) {
	switch {
	case tx.MaxFeePerGas != nil:
		return *tx.MaxFeePerGas, true
	case tx.GasPrice != nil:
		return *tx.GasPrice, true
	}
	return 0, false
}

// ComputeHash derives the content hash over the identifying fields.
func (tx *Transaction) ComputeHash() Hash {
	var buf bytes.Buffer
	buf.Write(tx.From[:])
	if tx.To != nil {
		buf.Write(tx.To[:])
	}
	var u [8]byte
	binary.BigEndian.PutUint64(u[:], tx.Nonce)
	buf.Write(u[:])
	binary.BigEndian.PutUint64(u[:], tx.Value)
	buf.Write(u[:])
	binary.BigEndian.PutUint64(u[:], tx.GasLimit)
	buf.Write(u[:])
	if fee, ok := tx.EffectiveFee(); ok {
		binary.BigEndian.PutUint64(u[:], fee)
		buf.Write(u[:])
	}
	buf.Write(tx.Input)
	return sha256.Sum256(buf.Bytes())
}
