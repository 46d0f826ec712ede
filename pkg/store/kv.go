// Package store implements the engine's content-addressed blockchain store:
// blocks, transactions and per-contract state trees behind a single
// key-value backend, plus the BlockchainOverlay copy-on-write batch used to
// apply or discard a transaction's writes atomically.
//
// KVAdapter wraps github.com/cometbft/cometbft-db's dbm.DB: a lightweight,
// swappable, embedded KV interface rather than a SQL driver. It is widened
// here to expose Delete/Has/batched writes, since the overlay needs atomic
// multi-key commits that a bare Get/SetSync pair can't give it.
package store

import (
	"errors"

	dbm "github.com/cometbft/cometbft-db"
)

// ErrClosed names the closed-database condition. No operation in this
// package returns it: a call made on a Blockchain after Close reaches the
// closed backend and returns whatever error that backend reports.
var ErrClosed = errors.New("store: database is closed")

// KVStore is the minimal key-value contract the store builds on.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	NewBatch() KVBatch
	Close() error
}

// KVBatch accumulates writes for an atomic commit.
type KVBatch interface {
	Set(key, value []byte)
	Delete(key []byte)
	WriteSync() error
	Close() error
}

// KVAdapter wraps a cometbft-db dbm.DB and implements KVStore.
type KVAdapter struct {
	db dbm.DB
}

// NewKVAdapter wraps an already-opened cometbft-db handle.
func NewKVAdapter(db dbm.DB) *KVAdapter {
	return &KVAdapter{db: db}
}

// Get returns the value for key, or nil if it is not present.
func (a *KVAdapter) Get(key []byte) ([]byte, error) {
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Has reports whether key is present.
func (a *KVAdapter) Has(key []byte) (bool, error) {
	return a.db.Has(key)
}

// Set durably writes key/value.
func (a *KVAdapter) Set(key, value []byte) error {
	return a.db.SetSync(key, value)
}

// Delete durably removes key.
func (a *KVAdapter) Delete(key []byte) error {
	return a.db.DeleteSync(key)
}

// NewBatch starts a new atomic write batch.
func (a *KVAdapter) NewBatch() KVBatch {
	return &kvBatch{batch: a.db.NewBatch()}
}

// Close releases the underlying database handle.
func (a *KVAdapter) Close() error {
	return a.db.Close()
}

type kvBatch struct {
	batch dbm.Batch
}

func (b *kvBatch) Set(key, value []byte) {
	_ = b.batch.Set(key, value)
}

func (b *kvBatch) Delete(key []byte) {
	_ = b.batch.Delete(key)
}

func (b *kvBatch) WriteSync() error {
	return b.batch.WriteSync()
}

func (b *kvBatch) Close() error {
	return b.batch.Close()
}
