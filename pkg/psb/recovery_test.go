package psb

import (
	"errors"
	"testing"
)

func TestTryRecoveryFindsEmptyTables(t *testing.T) {
	t.Parallel()

	raw := fixture{
		code:    strRef(0),
		entries: []string{"hi", "there"},
		trailer: concat(emptyTable, emptyTable),
	}.build(t)
	blobEnd := len(raw) - 6

	// a broken packer left garbage in the resource fields
	h, _ := decodeHeader(raw)
	h.ResOffsetsPos = 0x30
	h.ResSizesPos = 0x31
	h.ResDataPos = 0
	h.put(raw[:headerSize])

	out, err := TryRecovery(raw, DefaultCompressionLevel)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	got, err := ReadHeader(out)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if got.ResOffsetsPos != uint32(blobEnd) || got.ResSizesPos != uint32(blobEnd+3) || got.ResDataPos != uint32(blobEnd+6) {
		t.Fatalf("recovered fields = %+v (blob end 0x%x)", got, blobEnd)
	}
	if raw[offResOffsets] != 0x30 {
		t.Fatalf("input buffer was modified")
	}

	c, err := Load(out, Options{})
	if err != nil {
		t.Fatalf("load recovered: %v", err)
	}
	table, _, err := c.Resources()
	if err != nil || table.Len() != 0 {
		t.Fatalf("recovered resource table = %+v, %v", table, err)
	}
}

func TestTryRecoveryKeepsEnvelope(t *testing.T) {
	t.Parallel()

	raw := fixture{
		code:    strRef(0),
		entries: []string{"x"},
		trailer: concat(emptyTable, emptyTable),
	}.build(t)
	wrapped, err := Wrap(raw, 1)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	out, err := TryRecovery(wrapped, 1)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if Classify(out) != StatusMDF {
		t.Fatalf("recovered output lost its envelope")
	}
}

func TestTryRecoveryFails(t *testing.T) {
	t.Parallel()

	raw := fixture{code: strRef(0), entries: []string{"a"}}.build(t)
	if _, err := TryRecovery(raw, 1); !errors.Is(err, ErrRecoveryFailed) {
		t.Fatalf("expected ErrRecoveryFailed, got %v", err)
	}

	if _, err := TryRecovery([]byte("garbage"), 1); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestTryRecoveryAcceptsValidTables(t *testing.T) {
	t.Parallel()

	raw := helloFixture(t)
	out, err := TryRecovery(raw, 1)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("valid container was changed")
	}
}
