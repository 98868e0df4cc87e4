package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"stakeshare/core/events"
	"stakeshare/crypto"
)

func TestLogEmitterRendersEventAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	emitter := logEmitter{log: slog.New(slog.NewJSONHandler(buf, nil))}

	holder := crypto.MustNewAddress(crypto.LSTPrefix, bytes.Repeat([]byte{0x11}, 20))
	emitter.Emit(events.Staked{
		Holder:       holder,
		Amount:       big.NewInt(500),
		SharesMinted: big.NewInt(1),
		NewShares:    big.NewInt(1),
		Deposit:      3,
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != events.TypeStaked {
		t.Fatalf("message: got %v want %s", entry["msg"], events.TypeStaked)
	}
	if entry["holder"] != holder.String() {
		t.Fatalf("holder attribute: got %v want %s", entry["holder"], holder.String())
	}
	if entry["amount"] != "500" {
		t.Fatalf("amount attribute: got %v want 500", entry["amount"])
	}
	if entry["deposit"] != "3" {
		t.Fatalf("deposit attribute: got %v want 3", entry["deposit"])
	}
}
