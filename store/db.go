package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketTicks = []byte("ticks")
	bucketMeta  = []byte("meta")

	keyChainState = []byte("chain_state")
	keyTickIndex  = []byte("tick_index")
)

// KVOp is one write in a WriteBatch: Value nil means delete.
type KVOp struct {
	Key   []byte
	Value []byte
}

// DB is the concrete durable key/value store backing the abstract
// get/put/delete/iterate-prefix/write-batch contract (SPEC_FULL.md §4.6),
// bucketed into "ticks" (serialized tick certificates, keyed by
// zero-padded hex tick number) and "meta" (chain-state snapshot and the
// tick index).
type DB struct {
	chainDir string
	db       *bolt.DB
	manifest *Manifest
}

// Open opens (creating if absent) the bbolt store for chainIDHex under
// datadir, ensuring both buckets exist.
func Open(datadir string, chainIDHex string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if chainIDHex == "" {
		return nil, fmt.Errorf("store: chain_id_hex required")
	}

	chainDir := ChainDir(datadir, chainIDHex)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "kv.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketTicks, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil // uninitialized chain; caller must InitGenesis.
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("store: manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) SetManifest(m *Manifest) error {
	if d == nil {
		return fmt.Errorf("store: nil db")
	}
	if err := writeManifestAtomic(d.chainDir, m); err != nil {
		return err
	}
	d.manifest = m
	return nil
}

func bucketByName(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("store: unknown bucket %s", string(name))
	}
	return b, nil
}

// Get reads key from bucket, reporting (nil, false, nil) if absent.
func (d *DB) Get(bucket, key []byte) ([]byte, bool, error) {
	var out []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		b, err := bucketByName(tx, bucket)
		if err != nil {
			return err
		}
		v := b.Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Put writes key=value into bucket.
func (d *DB) Put(bucket, key, value []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b, err := bucketByName(tx, bucket)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

// Delete removes key from bucket.
func (d *DB) Delete(bucket, key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b, err := bucketByName(tx, bucket)
		if err != nil {
			return err
		}
		return b.Delete(key)
	})
}

// IteratePrefix calls fn for every key in bucket starting with prefix, in
// key order, stopping early if fn returns an error.
func (d *DB) IteratePrefix(bucket, prefix []byte, fn func(key, value []byte) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		b, err := bucketByName(tx, bucket)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// WriteBatch applies ops to bucket atomically: a nil Value deletes, any
// other value (including empty, non-nil) puts.
func (d *DB) WriteBatch(bucket []byte, ops []KVOp) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b, err := bucketByName(tx, bucket)
		if err != nil {
			return err
		}
		for _, op := range ops {
			if op.Value == nil {
				if err := b.Delete(op.Key); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

// tickKey renders the "tick:" + zero-padded hex(tick_number) keyspace.
func tickKey(tickNumber uint64) []byte {
	return []byte(fmt.Sprintf("tick:%016x", tickNumber))
}

// PutTick stores a serialized tick certificate.
func (d *DB) PutTick(tickNumber uint64, data []byte) error {
	return d.Put(bucketTicks, tickKey(tickNumber), data)
}

// GetTick retrieves a serialized tick certificate.
func (d *DB) GetTick(tickNumber uint64) ([]byte, bool, error) {
	return d.Get(bucketTicks, tickKey(tickNumber))
}

// PutChainState stores the serialized root chain-state record.
func (d *DB) PutChainState(data []byte) error {
	return d.Put(bucketMeta, keyChainState, data)
}

// GetChainState retrieves the serialized root chain-state record.
func (d *DB) GetChainState() ([]byte, bool, error) {
	return d.Get(bucketMeta, keyChainState)
}

// PutTickIndex records the latest finalized tick number.
func (d *DB) PutTickIndex(tickNumber uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], tickNumber)
	return d.Put(bucketMeta, keyTickIndex, buf[:])
}

// GetTickIndex retrieves the latest finalized tick number, 0 if unset.
func (d *DB) GetTickIndex() (uint64, error) {
	v, ok, err := d.Get(bucketMeta, keyTickIndex)
	if err != nil {
		return 0, err
	}
	if !ok || len(v) != 8 {
		return 0, nil
	}
	return binary.LittleEndian.Uint64(v), nil
}
