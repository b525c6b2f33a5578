package store

import "testing"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir, "deadbeef")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetTick(t *testing.T) {
	db := openTestDB(t)
	if err := db.PutTick(5, []byte("cert-5")); err != nil {
		t.Fatalf("PutTick: %v", err)
	}
	v, ok, err := db.GetTick(5)
	if err != nil {
		t.Fatalf("GetTick: %v", err)
	}
	if !ok || string(v) != "cert-5" {
		t.Fatalf("GetTick = (%q, %v), want (cert-5, true)", v, ok)
	}
	if _, ok, _ := db.GetTick(6); ok {
		t.Fatalf("GetTick(6) should be absent")
	}
}

func TestChainStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.PutChainState([]byte("state-blob")); err != nil {
		t.Fatalf("PutChainState: %v", err)
	}
	v, ok, err := db.GetChainState()
	if err != nil || !ok || string(v) != "state-blob" {
		t.Fatalf("GetChainState = (%q, %v, %v)", v, ok, err)
	}
}

func TestTickIndexRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if v, err := db.GetTickIndex(); err != nil || v != 0 {
		t.Fatalf("GetTickIndex before write = (%d, %v), want (0, nil)", v, err)
	}
	if err := db.PutTickIndex(42); err != nil {
		t.Fatalf("PutTickIndex: %v", err)
	}
	v, err := db.GetTickIndex()
	if err != nil || v != 42 {
		t.Fatalf("GetTickIndex = (%d, %v), want (42, nil)", v, err)
	}
}

func TestIteratePrefix(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		if err := db.PutTick(uint64(i), []byte{byte(i)}); err != nil {
			t.Fatalf("PutTick %d: %v", i, err)
		}
	}
	var seen []uint64
	err := db.IteratePrefix(bucketTicks, []byte("tick:"), func(key, value []byte) error {
		seen = append(seen, uint64(value[0]))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(seen))
	}
}

func TestWriteBatchAtomicPutAndDelete(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put(bucketMeta, []byte("x"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	err := db.WriteBatch(bucketMeta, []KVOp{
		{Key: []byte("x"), Value: nil}, // delete
		{Key: []byte("y"), Value: []byte("2")},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if _, ok, _ := db.Get(bucketMeta, []byte("x")); ok {
		t.Fatalf("expected x deleted")
	}
	v, ok, _ := db.Get(bucketMeta, []byte("y"))
	if !ok || string(v) != "2" {
		t.Fatalf("expected y=2, got %q ok=%v", v, ok)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	db := openTestDB(t)
	m := &Manifest{SchemaVersion: SchemaVersionV1, ChainIDHex: "deadbeef", LastFinalizedTick: 7}
	if err := db.SetManifest(m); err != nil {
		t.Fatalf("SetManifest: %v", err)
	}
	if db.Manifest().LastFinalizedTick != 7 {
		t.Fatalf("Manifest not retained after SetManifest")
	}
}
