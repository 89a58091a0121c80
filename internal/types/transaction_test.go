package types

import (
	"testing"
)

func TestEffectiveFee(t *testing.T) {
	gp := uint64(100)
	maxFee := uint64(150)

	tx := &Transaction{}
	if _, ok := tx.EffectiveFee(); ok {
		t.Fatalf("no fee fields must report !ok")
	}

	tx = &Transaction{GasPrice: &gp}
	if fee, ok := tx.EffectiveFee(); !ok || fee != 100 {
		t.Fatalf("want 100, got %d/%v", fee, ok)
	}

	// MaxFeePerGas wins when both are set.
	tx = &Transaction{GasPrice: &gp, MaxFeePerGas: &maxFee}
	if fee, ok := tx.EffectiveFee(); !ok || fee != 150 {
		t.Fatalf("want 150, got %d/%v", fee, ok)
	}
}

func TestComputeHash_Distinct(t *testing.T) {
	gp := uint64(10)
	a := &Transaction{From: Address{1}, Nonce: 0, GasPrice: &gp}
	b := &Transaction{From: Address{1}, Nonce: 1, GasPrice: &gp}
	if a.ComputeHash() == b.ComputeHash() {
		t.Fatalf("different nonces must hash differently")
	}
	if a.ComputeHash() != a.ComputeHash() {
		t.Fatalf("hash must be deterministic")
	}
}

func TestHashHexRoundTrip(t *testing.T) {
	var h Hash
	h[0] = 0xab
	h[31] = 0x01
	got, err := HashFromHex(h.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: %s vs %s", got, h)
	}
	if _, err := HashFromHex("0x1234"); err == nil {
		t.Fatalf("short hash must fail")
	}
}

func TestAddressHexRoundTrip(t *testing.T) {
	var a Address
	a[0] = 0xff
	got, err := AddressFromHex(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != a {
		t.Fatalf("round trip mismatch")
	}
	if _, err := AddressFromHex("zz"); err == nil {
		t.Fatalf("bad hex must fail")
	}
}

func TestSummarizeStats(t *testing.T) {
	f1, f2 := uint64(10), uint64(20)
	txs := []*Transaction{{GasPrice: &f1}, {GasPrice: &f2}, {}}
	st := SummarizeStats(txs)
	if st.Items != 3 || st.TotalFees != 30 {
		t.Fatalf("want 3 items / 30 fees, got %d/%d", st.Items, st.TotalFees)
	}
}
