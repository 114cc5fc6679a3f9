// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/IgorLTS10/multi-sig-wallet/record"
)

// InMemWAL is an in-memory WriteAheadLog, used in tests and by hosts that
// do not need persistence across restarts.
type InMemWAL struct {
	bb bytes.Buffer
}

func NewMemWAL() *InMemWAL {
	return &InMemWAL{}
}

func (w *InMemWAL) Append(r *record.Record) error {
	_, err := w.bb.Write(r.Bytes())
	return err
}

func (w *InMemWAL) ReadAll() ([]record.Record, error) {
	in := bytes.NewReader(w.bb.Bytes())
	var records []record.Record
	for {
		var r record.Record
		if _, err := r.FromBytes(in); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("failed reading in-memory record: %w", err)
		}
		records = append(records, r)
	}
}
