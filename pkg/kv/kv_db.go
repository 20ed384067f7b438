// Package kv persists solved queries to pebble so the REST surface can list
// recent history. Only results ever land here; graphs stay per-request and
// are never written anywhere.
package kv

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
)

type KVDB struct {
	db  *pebble.DB
	log *zap.Logger
	seq atomic.Uint64
}

// NewKVDB wraps an opened pebble handle. The record sequence resumes from
// the highest key already in the store so restarts keep appending.
func NewKVDB(db *pebble.DB, log *zap.Logger) (*KVDB, error) {
	k := &KVDB{db: db, log: log}

	it, err := db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if it.Last() && len(it.Key()) == 8 {
		k.seq.Store(binary.BigEndian.Uint64(it.Key()))
	}
	return k, nil
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// NextSeq hands out the key for the record about to be queued.
func (k *KVDB) NextSeq() uint64 {
	return k.seq.Add(1)
}

// SaveRecord is shaped as a worker pool JobFunc; the history writer pool
// calls it for every queued record.
func (k *KVDB) SaveRecord(item concurrent.SaveRecordJobItem) interface{} {
	val, err := CompressRecord(item.Record)
	if err != nil {
		k.log.Error("encode query record", zap.Uint64("seq", item.Seq), zap.Error(err))
		return err
	}

	var key [8]byte
	binary.BigEndian.PutUint64(key[:], item.Seq)
	if err := k.db.Set(key[:], val, pebble.NoSync); err != nil {
		k.log.Error("write query record", zap.Uint64("seq", item.Seq), zap.Error(err))
		return err
	}
	return nil
}

// RecentQueries returns up to limit records, newest first.
func (k *KVDB) RecentQueries(limit int) ([]concurrent.QueryRecord, error) {
	it, err := k.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	records := []concurrent.QueryRecord{}
	for ok := it.Last(); ok && len(records) < limit; ok = it.Prev() {
		rec, err := LoadRecord(it.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
