package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"

	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
)

func Encode(rec concurrent.QueryRecord) ([]byte, error) {
	return binary.Marshal(rec)
}

func Decode(bb []byte) (concurrent.QueryRecord, error) {
	var rec concurrent.QueryRecord
	err := binary.Unmarshal(bb, &rec)
	return rec, err
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}

// CompressRecord is the write-side pipeline: binary encode then zstd.
func CompressRecord(rec concurrent.QueryRecord) ([]byte, error) {
	bb, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	return Compress(bb)
}

// LoadRecord is the read-side pipeline: zstd then binary decode.
func LoadRecord(bb []byte) (concurrent.QueryRecord, error) {
	raw, err := Decompress(bb)
	if err != nil {
		return concurrent.QueryRecord{}, err
	}
	return Decode(raw)
}
