package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// ErrNotFound is returned when a positional read addresses an index at or
// beyond the current length of a log.
var ErrNotFound = errors.New("storage: not found")

var lengthCell = []byte("len")

// AppendLog is a positionally indexed, append-only sequence of RLP-encoded
// records living inside one namespace of a Database. Records are stored one
// per cell keyed by their big-endian index, with the count in a dedicated
// length cell, giving O(1) appends and O(1) random reads. There is no update
// or delete.
//
// AppendLog assumes the single-writer model of the surrounding request path;
// it is not safe for concurrent mutation.
type AppendLog struct {
	db Database
	ns Namespace
}

// AttachOrCreateLog idempotently opens the log under the given namespace. A
// namespace that has never been written reads as an empty log; the length
// cell is materialised by the first Push.
func AttachOrCreateLog(db Database, ns Namespace) *AppendLog {
	return &AppendLog{db: db, ns: ns}
}

// AttachLog opens the log under the given namespace and reports whether the
// namespace has ever been written. An absent namespace is not an error: the
// returned log reads as zero records.
func AttachLog(db Database, ns Namespace) (*AppendLog, bool, error) {
	log := &AppendLog{db: db, ns: ns}
	exists, err := db.Has(ns.Key(lengthCell))
	if err != nil {
		return nil, false, err
	}
	return log, exists, nil
}

// Len returns the current record count.
func (l *AppendLog) Len() (uint64, error) {
	raw, err := l.db.Get(l.ns.Key(lengthCell))
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("appendlog: corrupt length cell (%d bytes)", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Push appends one record at the next available position. It fails only when
// the record cannot be RLP-encoded or the underlying store errors.
func (l *AppendLog) Push(record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("appendlog: encode record: %w", err)
	}
	length, err := l.Len()
	if err != nil {
		return err
	}
	if err := l.db.Put(l.ns.Key(indexCell(length)), encoded); err != nil {
		return err
	}
	var next [8]byte
	binary.BigEndian.PutUint64(next[:], length+1)
	return l.db.Put(l.ns.Key(lengthCell), next[:])
}

// GetAt decodes the record at the given zero-based position into out. It
// returns ErrNotFound when the index is at or past the end of the log.
func (l *AppendLog) GetAt(index uint64, out interface{}) error {
	raw, err := l.getRaw(index)
	if err != nil {
		return err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return fmt.Errorf("appendlog: decode record %d: %w", index, err)
	}
	return nil
}

// Iterate walks all records in insertion order at the current length
// snapshot, invoking fn with each index and raw encoded record. Returning
// false from fn stops the walk early. Each call starts fresh.
func (l *AppendLog) Iterate(fn func(index uint64, raw []byte) (bool, error)) error {
	length, err := l.Len()
	if err != nil {
		return err
	}
	for i := uint64(0); i < length; i++ {
		raw, err := l.getRaw(i)
		if err != nil {
			return err
		}
		cont, err := fn(i, raw)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// PageDesc returns up to pageSize raw records in reverse insertion order
// (most recent first) after skipping page*pageSize entries, alongside the
// total record count. Paging past the end yields an empty slice, never an
// error.
func (l *AppendLog) PageDesc(page, pageSize uint32) ([][]byte, uint64, error) {
	length, err := l.Len()
	if err != nil {
		return nil, 0, err
	}
	skip := uint64(page) * uint64(pageSize)
	if skip >= length || pageSize == 0 {
		return [][]byte{}, length, nil
	}
	start := length - skip // exclusive upper bound, walking down
	records := make([][]byte, 0, pageSize)
	for i := start; i > 0 && uint32(len(records)) < pageSize; i-- {
		raw, err := l.getRaw(i - 1)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, raw)
	}
	return records, length, nil
}

func (l *AppendLog) getRaw(index uint64) ([]byte, error) {
	length, err := l.Len()
	if err != nil {
		return nil, err
	}
	if index >= length {
		return nil, fmt.Errorf("appendlog: index %d out of range %d: %w", index, length, ErrNotFound)
	}
	raw, err := l.db.Get(l.ns.Key(indexCell(index)))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("appendlog: missing record cell %d", index)
	}
	return raw, nil
}

func indexCell(index uint64) []byte {
	var cell [8]byte
	binary.BigEndian.PutUint64(cell[:], index)
	return cell[:]
}
