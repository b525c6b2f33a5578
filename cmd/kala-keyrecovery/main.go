// Command kala-keyrecovery wraps and unwraps node-local timelock keys for
// operator custody, so a sealed transaction's key can be recovered without
// waiting out the puzzle's forced delay (audit tooling, emergency
// recovery). It reads one JSON request from stdin, writes one JSON
// response to stdout, and exits non-zero when the response is not ok.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/enigmarikki/kala-sub000/timelock"
)

// Request is one wrap/unwrap operation.
type Request struct {
	Op         string `json:"op"` // "wrap" or "unwrap"
	KEKHex     string `json:"kek_hex"`
	KeyHex     string `json:"key_hex,omitempty"`     // required for "wrap"
	WrappedHex string `json:"wrapped_hex,omitempty"` // required for "unwrap"
}

// Response reports the outcome of one Request.
type Response struct {
	Ok         bool   `json:"ok"`
	Err        string `json:"err,omitempty"`
	WrappedHex string `json:"wrapped_hex,omitempty"`
	KeyHex     string `json:"key_hex,omitempty"`
}

func decodeKEK(hexStr string) ([32]byte, error) {
	var kek [32]byte
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return kek, fmt.Errorf("bad kek_hex: %w", err)
	}
	if len(raw) != 32 {
		return kek, fmt.Errorf("kek_hex must decode to 32 bytes, got %d", len(raw))
	}
	copy(kek[:], raw)
	return kek, nil
}

// handle executes one Request, never erroring itself — failures are
// reported in the returned Response so the caller can always emit valid
// JSON.
func handle(req Request) Response {
	kek, err := decodeKEK(req.KEKHex)
	if err != nil {
		return Response{Ok: false, Err: err.Error()}
	}

	switch req.Op {
	case "wrap":
		raw, err := hex.DecodeString(req.KeyHex)
		if err != nil || len(raw) != 32 {
			return Response{Ok: false, Err: "key_hex must decode to 32 bytes"}
		}
		var key [32]byte
		copy(key[:], raw)

		wrapped, err := timelock.SealKeyBackup(kek, key)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		return Response{Ok: true, WrappedHex: hex.EncodeToString(wrapped)}

	case "unwrap":
		wrapped, err := hex.DecodeString(req.WrappedHex)
		if err != nil {
			return Response{Ok: false, Err: "bad wrapped_hex"}
		}
		key, err := timelock.UnsealKeyBackup(kek, wrapped)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		return Response{Ok: true, KeyHex: hex.EncodeToString(key[:])}

	default:
		return Response{Ok: false, Err: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		os.Exit(1)
	}

	resp := handle(req)
	writeResp(os.Stdout, resp)
	if !resp.Ok {
		os.Exit(1)
	}
}
