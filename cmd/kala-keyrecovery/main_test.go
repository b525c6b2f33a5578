package main

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func hexOf(b []byte) string { return hex.EncodeToString(b) }

func TestHandleWrapUnwrapRoundTrip(t *testing.T) {
	kek := sha256.Sum256([]byte("node-local-kek"))
	key := sha256.Sum256([]byte("sealed-tx-key"))

	wrapResp := handle(Request{
		Op:     "wrap",
		KEKHex: hexOf(kek[:]),
		KeyHex: hexOf(key[:]),
	})
	if !wrapResp.Ok {
		t.Fatalf("wrap: %s", wrapResp.Err)
	}
	if wrapResp.WrappedHex == "" {
		t.Fatalf("wrap: expected non-empty wrapped_hex")
	}

	unwrapResp := handle(Request{
		Op:         "unwrap",
		KEKHex:     hexOf(kek[:]),
		WrappedHex: wrapResp.WrappedHex,
	})
	if !unwrapResp.Ok {
		t.Fatalf("unwrap: %s", unwrapResp.Err)
	}
	if unwrapResp.KeyHex != hexOf(key[:]) {
		t.Fatalf("unwrap: recovered %s, want %s", unwrapResp.KeyHex, hexOf(key[:]))
	}
}

func TestHandleRejectsBadKEK(t *testing.T) {
	key := sha256.Sum256([]byte("sealed-tx-key"))

	resp := handle(Request{Op: "wrap", KEKHex: "not-hex", KeyHex: hexOf(key[:])})
	if resp.Ok {
		t.Fatalf("expected failure for malformed kek_hex")
	}

	resp = handle(Request{Op: "wrap", KEKHex: hexOf(key[:16]), KeyHex: hexOf(key[:])})
	if resp.Ok {
		t.Fatalf("expected failure for short kek_hex")
	}
}

func TestHandleRejectsBadKeyHex(t *testing.T) {
	kek := sha256.Sum256([]byte("node-local-kek"))

	resp := handle(Request{Op: "wrap", KEKHex: hexOf(kek[:]), KeyHex: "zz"})
	if resp.Ok {
		t.Fatalf("expected failure for malformed key_hex")
	}

	resp = handle(Request{Op: "wrap", KEKHex: hexOf(kek[:]), KeyHex: hexOf(kek[:8])})
	if resp.Ok {
		t.Fatalf("expected failure for short key_hex")
	}
}

func TestHandleRejectsBadWrappedHex(t *testing.T) {
	kek := sha256.Sum256([]byte("node-local-kek"))

	resp := handle(Request{Op: "unwrap", KEKHex: hexOf(kek[:]), WrappedHex: "not-hex"})
	if resp.Ok {
		t.Fatalf("expected failure for malformed wrapped_hex")
	}
}

func TestHandleUnwrapRejectsWrongKEK(t *testing.T) {
	kek := sha256.Sum256([]byte("node-local-kek"))
	otherKEK := sha256.Sum256([]byte("different-kek"))
	key := sha256.Sum256([]byte("sealed-tx-key"))

	wrapResp := handle(Request{Op: "wrap", KEKHex: hexOf(kek[:]), KeyHex: hexOf(key[:])})
	if !wrapResp.Ok {
		t.Fatalf("wrap: %s", wrapResp.Err)
	}

	unwrapResp := handle(Request{Op: "unwrap", KEKHex: hexOf(otherKEK[:]), WrappedHex: wrapResp.WrappedHex})
	if unwrapResp.Ok {
		t.Fatalf("expected failure unwrapping under the wrong kek")
	}
}

func TestHandleRejectsUnknownOp(t *testing.T) {
	kek := sha256.Sum256([]byte("node-local-kek"))

	resp := handle(Request{Op: "rotate", KEKHex: hexOf(kek[:])})
	if resp.Ok {
		t.Fatalf("expected failure for unknown op")
	}
}
