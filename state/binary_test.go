package state

import "testing"

func TestTickCertificateBinaryRoundTrip(t *testing.T) {
	orig := &TickCertificate{
		TickNumber:       3,
		TickType:         TickFull,
		VDFIteration:     2700,
		VDFFormA:         []byte{1, 2, 3},
		VDFFormB:         []byte{4, 5},
		VDFFormC:         []byte{6},
		HashChainValue:   addr(1),
		TransactionCount: 5,
		TransactionMerkleRoot: addr(2),
		Timestamp:        1234567,
		PreviousTickHash: addr(3),
	}
	orig.TickHash = orig.ComputeHash()

	data, err := orig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got TickCertificate
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if got.TickNumber != orig.TickNumber || got.TickType != orig.TickType ||
		got.VDFIteration != orig.VDFIteration || got.HashChainValue != orig.HashChainValue ||
		got.TickHash != orig.TickHash || got.TransactionCount != orig.TransactionCount ||
		got.TransactionMerkleRoot != orig.TransactionMerkleRoot ||
		got.Timestamp != orig.Timestamp || got.PreviousTickHash != orig.PreviousTickHash {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, orig)
	}
	if string(got.VDFFormA) != string(orig.VDFFormA) || string(got.VDFFormB) != string(orig.VDFFormB) ||
		string(got.VDFFormC) != string(orig.VDFFormC) {
		t.Fatalf("VDF form bytes mismatch after round trip")
	}
	if got.ComputeHash() != orig.TickHash {
		t.Fatalf("recomputed hash mismatch after round trip")
	}
}
