// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"github.com/IgorLTS10/multi-sig-wallet/record"

	"go.uber.org/zap"
)

type Logger interface {
	// Log that a fatal error has occurred. The program should likely exit soon
	// after this is called
	Fatal(msg string, fields ...zap.Field)
	// Log that an error has occurred. The program should be able to recover
	// from this error
	Error(msg string, fields ...zap.Field)
	// Log that an event has occurred that may indicate a future error or
	// vulnerability
	Warn(msg string, fields ...zap.Field)
	// Log an event that may be useful for a user to see to measure the progress
	// of the engine
	Info(msg string, fields ...zap.Field)
	// Log an event that may be useful for understanding the order of the
	// execution of the engine
	Trace(msg string, fields ...zap.Field)
	// Log an event that may be useful for a programmer to see when debugging
	// the execution of the engine
	Debug(msg string, fields ...zap.Field)
	// Log extremely detailed events that can be useful for inspecting every
	// aspect of the program
	Verbo(msg string, fields ...zap.Field)
}

// Executor carries out the real-world effect of an approved action.
// The engine treats it as a black box: a panic inside Run is treated
// identically to Run returning false.
type Executor interface {
	// Run performs the effect denoted by target/value/payload and reports
	// whether it succeeded.
	Run(target Target, value uint64, payload []byte) bool
}

// Notifier consumes events emitted by the engine after every successful
// state transition. Events are delivered synchronously, before the
// operation that caused them returns. Notify must not call back into the
// engine from the same goroutine.
type Notifier interface {
	Notify(event *Event)
}

// WriteAheadLog is an append-only record log the engine uses to persist
// every successful transition, and to rebuild its state on Start.
type WriteAheadLog interface {
	Append(r *record.Record) error
	ReadAll() ([]record.Record, error)
}
