// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/IgorLTS10/multi-sig-wallet/record"
)

const (
	walFlags       = os.O_APPEND | os.O_CREATE | os.O_RDWR
	walPermissions = 0666
)

// WriteAheadLog is a file-backed append-only record log. Every append is
// flushed to persistent storage before returning.
type WriteAheadLog struct {
	file *os.File
}

// New opens a write ahead log file, creating one if necessary.
// Call Close() on the WriteAheadLog to ensure the file is closed after use.
func New(fileName string) (*WriteAheadLog, error) {
	file, err := os.OpenFile(fileName, walFlags, walPermissions)
	if err != nil {
		return nil, err
	}
	return &WriteAheadLog{file: file}, nil
}

// Append writes a record to the log and flushes the OS cache.
func (w *WriteAheadLog) Append(r *record.Record) error {
	if _, err := w.file.Write(r.Bytes()); err != nil {
		return err
	}
	return w.file.Sync()
}

// ReadAll returns every record in the log, in append order. If a trailing
// record is corrupt or truncated, the log is truncated at the last intact
// record and the intact prefix is returned.
func (w *WriteAheadLog) ReadAll() ([]record.Record, error) {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to start: %w", err)
	}

	var (
		records []record.Record
		offset  int64
	)
	for {
		var r record.Record
		n, err := r.FromBytes(w.file)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			// The tail of the log did not survive a crash intact.
			return records, w.truncateAt(offset)
		}
		offset += int64(n)
		records = append(records, r)
	}
}

// Truncate empties the write ahead log.
func (w *WriteAheadLog) Truncate() error {
	return w.truncateAt(0)
}

func (w *WriteAheadLog) truncateAt(offset int64) error {
	if err := w.file.Truncate(offset); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *WriteAheadLog) Close() error {
	return w.file.Close()
}
