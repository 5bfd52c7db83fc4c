// Package kv wraps go.etcd.io/bbolt behind the storage-engine contract the
// rest of the core depends on: ordered keys, MVCC read snapshots, and a
// single active write transaction per index (spec §1 "the transactional
// key-value engine used for durability ... the core depends on its
// contract ... not its implementation"). The shape of Env/Tx/Bucket/Cursor
// mirrors the teacher's ethdb.Database/Tx/Cursor split in
// ethdb/memory_database.go, adapted from LMDB/Bolt bindings to bbolt.
package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/logging"
)

func timeoutCtx(d time.Duration) context.Context {
	if d <= 0 {
		d = 10 * time.Second
	}
	ctx, _ := context.WithTimeout(context.Background(), d) //nolint:lostcancel // lock release cancels it
	return ctx
}

// Options configures Env.Open (spec §6 "open(path, options)").
type Options struct {
	// MapSize is analogous to LMDB's mapsize the teacher configures in
	// ethdb.LMDB options; Open does not pass it to bbolt.
	MapSize int64
	// ReadOnly opens the store without acquiring the writer flock.
	ReadOnly bool
	// Timeout bounds how long Open waits for the writer flock.
	Timeout time.Duration
}

// DefaultOptions mirrors the teacher's conservative defaults in
// ethdb.NewLMDB(): a generous map size, short open timeout.
func DefaultOptions() Options {
	return Options{MapSize: 16 << 30, Timeout: 10 * time.Second}
}

// Env owns the on-disk files for one index: the bbolt database plus a
// gofrs/flock lock file enforcing single-writer-per-directory even across
// separate OS processes (bbolt itself only serializes writers within one
// process).
type Env struct {
	db   *bolt.DB
	lock *flock.Flock
	path string
	log  zerolog.Logger
}

// Open creates (if absent) or opens the bbolt store at path and ensures
// every bucket in codec.AllBuckets exists. Creating on an empty directory
// initializes an empty index, matching spec §6.
func Open(path string, opts Options) (*Env, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: mkdir %s: %w", path, err))
	}

	var lk *flock.Flock
	if !opts.ReadOnly {
		lk = flock.New(filepath.Join(path, "writer.lock"))
		ok, err := lk.TryLockContext(timeoutCtx(opts.Timeout), 50*time.Millisecond)
		if err != nil || !ok {
			return nil, errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: acquire writer lock: %w", err))
		}
	}

	db, err := bolt.Open(filepath.Join(path, "data.mdb"), 0o600, &bolt.Options{
		Timeout:    opts.Timeout,
		ReadOnly:   opts.ReadOnly,
		NoGrowSync: false,
	})
	if err != nil {
		if lk != nil {
			_ = lk.Unlock()
		}
		return nil, errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: open: %w", err))
	}

	if !opts.ReadOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			for _, name := range codec.AllBuckets {
				if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			_ = db.Close()
			if lk != nil {
				_ = lk.Unlock()
			}
			return nil, errs.IndexState(errs.CodeIOFailure, fmt.Errorf("kv: init buckets: %w", err))
		}
	}

	return &Env{db: db, lock: lk, path: path, log: logging.For("kv")}, nil
}

// Close releases the bbolt file and the writer flock.
func (e *Env) Close() error {
	err := e.db.Close()
	if e.lock != nil {
		_ = e.lock.Unlock()
	}
	return err
}

// Path returns the directory the env was opened at.
func (e *Env) Path() string { return e.path }

// View starts a read-only MVCC snapshot (spec §5 "Readers"): any number may
// run concurrently, each fully consistent with a past commit.
func (e *Env) View(fn func(tx Tx) error) error {
	return e.db.View(func(btx *bolt.Tx) error {
		return fn(Tx{btx: btx})
	})
}

// Update runs fn inside the single write transaction (spec §5 "Writer"):
// bbolt itself serializes writers within this process; Env.Open's flock
// extends that to the whole machine.
func (e *Env) Update(fn func(tx Tx) error) error {
	return e.db.Update(func(btx *bolt.Tx) error {
		return fn(Tx{btx: btx})
	})
}

// Compact rewrites the backing file into a fresh one with no free pages,
// then swaps it in (spec §6 lifecycle: "... settings-change | clear |
// compact"; spec S5 "Compaction is a no-op on query semantics"). It must
// not run concurrently with any other Update on this Env.
func (e *Env) Compact() error {
	tmpPath := filepath.Join(e.path, "data.mdb.compact")
	dst, err := bolt.Open(tmpPath, 0o600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: open compaction target: %w", err))
	}

	err = e.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(append([]byte(nil), k...), append([]byte(nil), v...))
				})
			})
		})
	})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return errs.IndexState(errs.CodeIOFailure, fmt.Errorf("kv: compact: %w", err))
	}

	dbPath := filepath.Join(e.path, "data.mdb")
	if err := e.db.Close(); err != nil {
		return errs.IndexState(errs.CodeIOFailure, fmt.Errorf("kv: close before swap: %w", err))
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		return errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: swap compacted file: %w", err))
	}

	reopened, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return errs.Resource(errs.CodeIOFailure, fmt.Errorf("kv: reopen after compact: %w", err))
	}
	e.db = reopened
	return nil
}

// Tx is a handle valid for the lifetime of one View/Update callback.
type Tx struct {
	btx *bolt.Tx
}

// Bucket opens the named bucket for reads and (if the enclosing Tx is a
// write transaction) writes.
func (t Tx) Bucket(name string) Bucket {
	return Bucket{b: t.btx.Bucket([]byte(name))}
}

// Writable reports whether this Tx came from Env.Update.
func (t Tx) Writable() bool { return t.btx.Writable() }

// Bucket wraps *bolt.Bucket with the Get/Put/Delete/Cursor surface the rest
// of the core uses; kept thin so callers depend on this contract, not on
// bbolt directly (only internal/kv imports bbolt).
type Bucket struct {
	b *bolt.Bucket
}

func (b Bucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b Bucket) Put(key, value []byte) error { return b.b.Put(key, value) }

func (b Bucket) Delete(key []byte) error { return b.b.Delete(key) }

// Cursor returns an ordered iterator over the bucket, supporting Seek for
// prefix/range scans (spec §4.1 "prefix iteration yields semantically
// meaningful ranges").
func (b Bucket) Cursor() *Cursor { return &Cursor{c: b.b.Cursor()} }

// Cursor iterates a bucket's keys in byte order.
type Cursor struct {
	c *bolt.Cursor
}

func (c *Cursor) First() (k, v []byte)        { return c.c.First() }
func (c *Cursor) Last() (k, v []byte)         { return c.c.Last() }
func (c *Cursor) Next() (k, v []byte)         { return c.c.Next() }
func (c *Cursor) Prev() (k, v []byte)         { return c.c.Prev() }
func (c *Cursor) Seek(prefix []byte) (k, v []byte) { return c.c.Seek(prefix) }
