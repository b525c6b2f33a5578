package tick

import "testing"

func TestTransactionBinaryRoundTrip(t *testing.T) {
	orig := &Transaction{
		Kind:      KindSend,
		Sender:    addrFor(1),
		Nonce:     7,
		Signature: []byte("01234567890123456789012345678901234567890123456789012345678901"),
		Receiver:  addrFor(2),
		Amount:    500,
	}
	data, err := orig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var got Transaction
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.Kind != orig.Kind || got.Sender != orig.Sender || got.Nonce != orig.Nonce ||
		got.Receiver != orig.Receiver || got.Amount != orig.Amount ||
		string(got.Signature) != string(orig.Signature) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestTransactionBinaryRoundTripSolveKind(t *testing.T) {
	orig := &Transaction{
		Kind:          KindSolve,
		Sender:        addrFor(3),
		Nonce:         1,
		Signature:     make([]byte, 64),
		PuzzleID:      addrFor(9),
		SolutionProof: []byte("proof-bytes"),
	}
	data, err := orig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, err := DecodeTransaction(data)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if got.PuzzleID != orig.PuzzleID || string(got.SolutionProof) != string(orig.SolutionProof) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestDecodeTransactionRejectsTruncatedPayload(t *testing.T) {
	if _, err := DecodeTransaction([]byte{byte(KindSend)}); err == nil {
		t.Fatalf("expected error decoding truncated payload")
	}
}

func addrFor(b byte) [32]byte {
	var a [32]byte
	a[0] = b
	return a
}
