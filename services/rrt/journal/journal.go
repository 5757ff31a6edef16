// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package journal persists planning run records in an embedded BadgerDB.
//
// Every record is stored as a CRC32-prefixed JSON entry under a sequence key,
// so listing newest first is a reverse prefix scan. A secondary key maps run
// IDs to sequence keys for lookups.
package journal

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
	"github.com/AleutianAI/AleutianRRT/pkg/validation"
	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/observe"
)

var (
	// ErrClosed is returned when operations are called on a closed journal.
	ErrClosed = errors.New("journal is closed")

	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("run record not found")

	// ErrCorrupted is returned when a stored entry fails its integrity check.
	ErrCorrupted = errors.New("journal entry corrupted (CRC mismatch)")

	// ErrNilRecord is returned by Append for a nil record.
	ErrNilRecord = errors.New("record must not be nil")
)

const (
	runPrefix = "run:"
	idPrefix  = "id:"
)

// Record is one finished planning run.
type Record struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`

	Seed     uint64 `json:"seed"`
	Cache    string `json:"cache"`
	MazeHash string `json:"maze_hash"`

	// Outcome is the outcome kind name, or "error" for a failed run.
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	ErrorSource string `json:"error_source,omitempty"`

	Iterations int          `json:"iterations"`
	Nodes      int          `json:"nodes"`
	Path       []grid.Coord `json:"path,omitempty"`

	Elapsed time.Duration         `json:"elapsed"`
	Stats   observe.StatsSnapshot `json:"stats"`
	Budget  budget.UsageReport    `json:"budget"`
}

// Journal is the run record store.
//
// Thread Safety: Safe for concurrent use.
type Journal struct {
	store  *store
	logger *slog.Logger
	seq    atomic.Uint64
	closed atomic.Bool
	mu     sync.Mutex
}

// Open opens the journal described by cfg. cfg.Enabled is not consulted;
// callers decide whether to open a journal at all.
//
// Inputs:
//   - cfg: Journal settings. Dir is required unless InMemory is set.
//   - logger: Logger for journal and badger events (nil for slog.Default()).
//
// Outputs:
//   - *Journal: Ready-to-use journal. Caller must call Close().
//   - error: Non-nil if the database cannot be opened.
func Open(cfg config.JournalConfig, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "journal"))

	s, err := openStore(cfg.Dir, cfg.InMemory, cfg.SyncWrites, logger)
	if err != nil {
		return nil, err
	}
	j := &Journal{store: s, logger: logger}
	if err := j.initSeq(); err != nil {
		_ = s.close()
		return nil, fmt.Errorf("init sequence number: %w", err)
	}

	logger.Info("journal opened",
		slog.String("dir", cfg.Dir),
		slog.Bool("in_memory", cfg.InMemory),
		slog.Uint64("last_seq", j.seq.Load()))
	return j, nil
}

// initSeq scans for the highest existing sequence number.
func (j *Journal) initSeq() error {
	return j.store.view(context.Background(), func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append([]byte(runPrefix), 0xFF))
		if it.Valid() {
			seq, err := parseRunKey(it.Item().Key())
			if err != nil {
				return err
			}
			j.seq.Store(seq)
		}
		return nil
	})
}

func runKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", runPrefix, seq))
}

func parseRunKey(key []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(key[len(runPrefix):]), "%016d", &seq); err != nil {
		return 0, fmt.Errorf("parse run key %q: %w", key, err)
	}
	return seq, nil
}

func idKey(id string) []byte {
	return []byte(idPrefix + id)
}

// encodeEntry encodes a record as [4-byte CRC][JSON].
func encodeEntry(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(data))
	copy(out[4:], data)
	return out, nil
}

// decodeEntry validates the CRC and decodes a record.
func decodeEntry(entry []byte) (Record, error) {
	if len(entry) < 5 {
		return Record{}, fmt.Errorf("%w: entry too short", ErrCorrupted)
	}
	stored := binary.BigEndian.Uint32(entry[:4])
	data := entry[4:]
	if computed := crc32.ChecksumIEEE(data); stored != computed {
		return Record{}, fmt.Errorf("%w: stored=%08x computed=%08x", ErrCorrupted, stored, computed)
	}
	var rec Record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("json decode: %w", err)
	}
	return rec, nil
}

// Append stores rec. ID, Seq and CreatedAt are filled in on rec: a missing ID
// gets a random UUID, Seq is always assigned.
func (j *Journal) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if j.closed.Load() {
		return ErrClosed
	}

	ctx, span := otel.Tracer("rrt.journal").Start(ctx, "journal.Append",
		trace.WithAttributes(attribute.String("rrt.run_id", rec.ID)),
	)
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if err := validation.ValidateRunID(rec.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid id")
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Seq = j.seq.Add(1)

	entry, err := encodeEntry(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return fmt.Errorf("encode entry: %w", err)
	}

	key := runKey(rec.Seq)
	err = j.store.update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(key, entry); err != nil {
			return err
		}
		return txn.Set(idKey(rec.ID), key)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("write entry: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("rrt.journal.seq", int64(rec.Seq)),
		attribute.Int("rrt.journal.entry_bytes", len(entry)),
	)
	j.logger.Debug("run record appended",
		slog.String("run_id", rec.ID),
		slog.Uint64("seq", rec.Seq),
		slog.Int("bytes", len(entry)))
	return nil
}

// Get returns the record with the given ID. A malformed ID fails with
// validation.ErrInvalidRunID before the store is read.
func (j *Journal) Get(ctx context.Context, id string) (Record, error) {
	if j.closed.Load() {
		return Record{}, ErrClosed
	}
	if err := validation.ValidateRunID(id); err != nil {
		return Record{}, err
	}
	var rec Record
	err := j.store.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeEntry(val)
			return err
		})
	})
	return rec, err
}

// List returns up to limit records, newest first. limit <= 0 returns all.
//
// Corrupted entries are skipped and logged rather than failing the listing.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	var out []Record
	err := j.store.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(runPrefix), 0xFF)); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rec, err := decodeEntry(val)
				if err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if errors.Is(err, ErrCorrupted) {
				j.logger.Warn("skipping corrupted run record",
					slog.String("key", string(item.Key())),
					slog.String("error", err.Error()))
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Len returns the number of records appended over the journal's lifetime.
func (j *Journal) Len() uint64 {
	return j.seq.Load()
}

// Close closes the journal. Safe to call multiple times.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed.Swap(true) {
		return nil
	}
	j.logger.Info("journal closed", slog.Uint64("last_seq", j.seq.Load()))
	return j.store.close()
}
