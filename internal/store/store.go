// SPDX-License-Identifier: MIT

// Package store implements the embedded ordered key-value storage engine
// that backs a wikipath database: three named tables (redirects, incoming,
// outgoing) over a single go.etcd.io/bbolt file, plus the memory-bounded
// buffered link inserter used while building an artifact.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// Mode gates which operations a Store permits.
type Mode int

const (
	// Build opens (creating if necessary) a database for read-write
	// access during a single build. Only one Build-mode Store may be
	// open on a given path at a time.
	Build Mode = iota

	// Serve opens an existing, finalized database read-only.
	Serve
)

// Table names the three logical tables a database carries. Each is a
// bbolt bucket.
type Table string

const (
	Redirects Table = "redirects"
	Incoming  Table = "incoming"
	Outgoing  Table = "outgoing"
)

var allTables = []Table{Redirects, Incoming, Outgoing}

// Store is the KV adapter described by the specification's "KV Store
// Adapter" component: three ordered tables keyed by PageId, opened either
// for a single build transaction or for many concurrent read-only serve
// transactions.
type Store struct {
	db      *bolt.DB
	mode    Mode
	path    string
	mapSize int64 // soft ceiling on on-disk size, 0 = unbounded
}

// Open opens the database at path. In Build mode, the file (and its parent
// directory) is created if absent. In Serve mode, the file must already
// exist and contain all three tables, or ErrMissingTable is returned.
//
// mapSize is a soft ceiling (in bytes) on the file's on-disk size, checked
// by Size/ExceedsLimit; unlike LMDB-style stores, bbolt has no fixed mmap
// arena to size up front, so this is enforced by the caller (the build
// orchestrator checks it once, before parsing starts) rather than by
// bbolt itself. A mapSize of 0 disables the check.
func Open(path string, mode Mode, mapSize int64) (*Store, error) {
	if mode == Build {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	opts := &bolt.Options{ReadOnly: mode == Serve}
	db, err := bolt.Open(path, 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", path, err)
	}

	s := &Store{db: db, mode: mode, path: path, mapSize: mapSize}

	if mode == Build {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, t := range allTables {
				if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		err = db.View(func(tx *bolt.Tx) error {
			for _, t := range allTables {
				if tx.Bucket([]byte(t)) == nil {
					return ErrMissingTable
				}
			}
			return nil
		})
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path the Store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Mode returns the mode the Store was opened with.
func (s *Store) Mode() Mode {
	return s.mode
}

// Size returns the current on-disk size of the database file.
func (s *Store) Size() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ExceedsLimit reports whether the database's on-disk size has already
// breached the configured mapSize ceiling. A mapSize of 0 means no ceiling
// was configured, so this always reports false.
func (s *Store) ExceedsLimit() (bool, error) {
	if s.mapSize <= 0 {
		return false, nil
	}
	size, err := s.Size()
	if err != nil {
		return false, err
	}
	return size > s.mapSize, nil
}

// ReadTxn is a read-only view over all three tables, safe for concurrent
// use from multiple goroutines (bbolt read transactions are independent
// MVCC snapshots).
type ReadTxn struct {
	tx *bolt.Tx
}

// BeginRead starts a read-only transaction. The caller must call Done
// when finished.
func (s *Store) BeginRead() (*ReadTxn, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &ReadTxn{tx: tx}, nil
}

// Done releases the read transaction.
func (r *ReadTxn) Done() error {
	return r.tx.Rollback()
}

// GetRedirect returns the resolved target of id, or (0, false) if id is
// not a redirect source.
func (r *ReadTxn) GetRedirect(id uint32) (uint32, bool, error) {
	b := r.tx.Bucket([]byte(Redirects))
	v := b.Get(encodeKey(id))
	if v == nil {
		return 0, false, nil
	}
	target, err := decodeRedirect(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return target, true, nil
}

// GetAdjacency returns the sorted, deduplicated neighbor list stored for
// id in the given table (Incoming or Outgoing).
func (r *ReadTxn) GetAdjacency(table Table, id uint32) ([]uint32, error) {
	b := r.tx.Bucket([]byte(table))
	if b == nil {
		return nil, fmt.Errorf("%w: no such table %q", ErrStorage, table)
	}
	v := b.Get(encodeKey(id))
	if v == nil {
		return nil, nil
	}
	ids, err := decodeAdjacency(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return ids, nil
}

// WriteTxn is the single read-write transaction used by a build. Only one
// may be open at a time per Store (enforced by bbolt itself).
type WriteTxn struct {
	tx *bolt.Tx
}

// BeginWrite starts the build's single write transaction. It fails if the
// Store was not opened in Build mode.
func (s *Store) BeginWrite() (*WriteTxn, error) {
	if s.mode != Build {
		return nil, fmt.Errorf("%w: store not opened in Build mode", ErrStorage)
	}
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &WriteTxn{tx: tx}, nil
}

// Commit persists the transaction.
func (w *WriteTxn) Commit() error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Rollback discards the transaction without persisting it.
func (w *WriteTxn) Rollback() error {
	return w.tx.Rollback()
}

// PutRedirect inserts src->dst into the redirects table. It is a hard
// error ("redirect already present") if src already has an entry — the
// resolver (internal/dump) must be idempotent before insertion, so any
// collision here indicates a bug upstream rather than legitimate data.
func (w *WriteTxn) PutRedirect(src, dst uint32) error {
	b := w.tx.Bucket([]byte(Redirects))
	if existing := b.Get(encodeKey(src)); existing != nil {
		return fmt.Errorf("%w: redirect already present for page %d", ErrIntegrityViolation, src)
	}
	return b.Put(encodeKey(src), encodeRedirect(dst))
}

// MergeAdjacency appends ids to whatever list is already stored for key in
// table, re-sorting and deduplicating the result. Used by the buffered
// inserter's flush path (see inserter.go); final compaction copies the
// stored bytes as they are and does not call it.
func (w *WriteTxn) MergeAdjacency(table Table, key uint32, ids []uint32) error {
	b := w.tx.Bucket([]byte(table))
	k := encodeKey(key)
	existing := b.Get(k)
	merged := ids
	if existing != nil {
		old, err := decodeAdjacency(existing)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		merged = append(old, ids...)
	}
	merged = sortedUnique(merged)
	return b.Put(k, encodeAdjacency(merged))
}

// ClearTable removes every key from table.
func (w *WriteTxn) ClearTable(table Table) error {
	b := w.tx.Bucket([]byte(table))
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// ForEach iterates every (key, value) pair of table in ascending key order.
// fn receives the raw, undecoded value bytes; decoding them according to
// the table's encoding (redirect: single id; incoming/outgoing: adjacency
// list) is left to fn.
func (w *WriteTxn) ForEach(table Table, fn func(key uint32, raw []byte) error) error {
	b := w.tx.Bucket([]byte(table))
	return b.ForEach(func(k, v []byte) error {
		return fn(decodeKey(k), v)
	})
}
