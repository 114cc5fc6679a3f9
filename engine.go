// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/IgorLTS10/multi-sig-wallet/metrics"
	"github.com/IgorLTS10/multi-sig-wallet/record"

	"go.uber.org/zap"
)

type Config struct {
	Logger   Logger
	Executor Executor
	// Notifier receives an event after every successful transition.
	// Optional.
	Notifier Notifier
	// WAL persists every successful transition and is replayed on Start.
	// Optional; without it the engine keeps state in memory only.
	WAL WriteAheadLog
	// Signers and Required seed the registry. When the WAL already holds a
	// config record, that record takes precedence over these.
	Signers  []SignerID
	Required int
}

// Engine is the approval state machine. A caller identified as a signer
// proposes actions, accumulates and withdraws approvals, changes the
// signer set, and triggers execution once quorum is reached. Every
// operation is serialized; an action transitions Pending -> Executed and
// never back.
type Engine struct {
	Config
	// Runtime
	lock      sync.Mutex
	started   atomic.Bool
	executing bool
	registry  *Registry
	actions   *ActionLog
}

func NewEngine(conf Config) (*Engine, error) {
	if conf.Logger == nil {
		return nil, fmt.Errorf("%w: no logger", ErrInvalidConfiguration)
	}
	if conf.Executor == nil {
		return nil, fmt.Errorf("%w: no executor", ErrInvalidConfiguration)
	}

	registry, err := NewRegistry(conf.Signers, conf.Required)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Config:   conf,
		registry: registry,
		actions:  NewActionLog(),
	}, nil
}

// Start replays the WAL, if any, and enables the engine. Mutating
// operations invoked before Start fail with ErrNotStarted.
func (e *Engine) Start() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.started.Load() {
		return nil
	}

	if err := e.syncFromWal(); err != nil {
		return err
	}

	metrics.SetSigners(e.registry.Count())
	metrics.SetThreshold(e.registry.Threshold())
	e.started.Store(true)
	return nil
}

// syncFromWal initializes the engine from the records of the write ahead
// log. An empty log is stamped with a config record describing the seed
// signer set; a non-empty log overrides the seed entirely.
func (e *Engine) syncFromWal() error {
	if e.WAL == nil {
		return nil
	}

	records, err := e.WAL.ReadAll()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		if err := e.WAL.Append(NewConfigRecord(e.registry.Members(), e.registry.Threshold())); err != nil {
			e.Logger.Error("Failed to append config record to WAL", zap.Error(err))
			return err
		}
		return nil
	}

	if records[0].Type != record.ConfigRecordType {
		return fmt.Errorf("first WAL record has type %d, expected config", records[0].Type)
	}
	signers, required, err := ParseConfigRecord(records[0].Payload)
	if err != nil {
		return err
	}
	registry, err := NewRegistry(signers, required)
	if err != nil {
		return err
	}
	e.registry = registry

	for _, r := range records[1:] {
		if err := e.applyRecord(&r); err != nil {
			return err
		}
	}

	e.Logger.Info("State restored from WAL",
		zap.Int("records", len(records)),
		zap.Uint64("actions", e.actions.Length()),
		zap.Int("signers", e.registry.Count()),
		zap.Int("threshold", e.registry.Threshold()))

	return nil
}

// applyRecord re-applies a previously persisted transition. Authorization
// was checked when the record was written; replay only re-checks structure.
// The executor is never invoked and no events are emitted.
func (e *Engine) applyRecord(r *record.Record) error {
	switch r.Type {
	case record.ProposalRecordType:
		proposal, err := ParseProposalRecord(r.Payload)
		if err != nil {
			return err
		}
		action := e.actions.Append(proposal.Target, proposal.Value, proposal.Payload)
		if action.index != proposal.Index {
			return fmt.Errorf("WAL proposal record carries index %d, expected %d", proposal.Index, action.index)
		}
		return nil
	case record.ApprovalRecordType:
		caller, index, err := ParseActionRecord(r.Payload)
		if err != nil {
			return err
		}
		action, err := e.actions.Get(index)
		if err != nil {
			return err
		}
		action.approve(caller)
		return nil
	case record.RevocationRecordType:
		caller, index, err := ParseActionRecord(r.Payload)
		if err != nil {
			return err
		}
		action, err := e.actions.Get(index)
		if err != nil {
			return err
		}
		action.revoke(caller)
		return nil
	case record.ExecutionRecordType:
		_, index, err := ParseActionRecord(r.Payload)
		if err != nil {
			return err
		}
		action, err := e.actions.Get(index)
		if err != nil {
			return err
		}
		action.executed = true
		return nil
	case record.SignerAddedRecordType:
		_, id, err := ParseSignerRecord(r.Payload)
		if err != nil {
			return err
		}
		return e.registry.Add(id)
	case record.SignerRemovedRecordType:
		_, id, err := ParseSignerRecord(r.Payload)
		if err != nil {
			return err
		}
		return e.registry.Remove(id)
	default:
		return fmt.Errorf("undefined record type: %d", r.Type)
	}
}

// canMutate guards every mutating operation. Callers must hold the lock.
func (e *Engine) canMutate(caller SignerID) error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	if e.executing {
		return ErrExecutionInProgress
	}
	if !e.registry.IsSigner(caller) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func (e *Engine) appendRecord(r *record.Record) error {
	if e.WAL == nil {
		return nil
	}
	if err := e.WAL.Append(r); err != nil {
		e.Logger.Error("Failed to append record to WAL", zap.Uint16("type", r.Type), zap.Error(err))
		return err
	}
	return nil
}

func (e *Engine) notify(event *Event) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(event)
}

// Propose appends a new pending action and returns its index.
func (e *Engine) Propose(caller SignerID, target Target, value uint64, payload []byte) (uint64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return 0, err
	}

	index := e.actions.Length()
	if err := e.appendRecord(NewProposalRecord(caller, index, target, value, payload)); err != nil {
		return 0, err
	}
	e.actions.Append(target, value, payload)

	metrics.ActionProposed()
	e.Logger.Debug("Action proposed",
		zap.Stringer("caller", caller),
		zap.Uint64("index", index),
		zap.Stringer("target", target),
		zap.Uint64("value", value))

	e.notify(&Event{ActionProposed: &ActionProposedEvent{
		Caller:  caller,
		Index:   index,
		Target:  target,
		Value:   value,
		Payload: payload,
	}})

	return index, nil
}

// Approve records the caller's approval of a pending action.
func (e *Engine) Approve(caller SignerID, index uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return err
	}
	action, err := e.actions.Get(index)
	if err != nil {
		return err
	}
	if action.executed {
		return fmt.Errorf("%w: action %d", ErrAlreadyExecuted, index)
	}
	if action.Approved(caller) {
		return fmt.Errorf("%w: action %d, signer %s", ErrDuplicateApproval, index, caller)
	}

	if err := e.appendRecord(NewActionRecord(record.ApprovalRecordType, caller, index)); err != nil {
		return err
	}
	action.approve(caller)

	metrics.ActionApproved()
	e.Logger.Debug("Action approved",
		zap.Stringer("caller", caller),
		zap.Uint64("index", index),
		zap.Int("approvals", action.ApprovalCount()))

	e.notify(&Event{ActionApproved: &ActionApprovedEvent{
		Caller: caller,
		Index:  index,
		Count:  action.ApprovalCount(),
	}})

	return nil
}

// Revoke withdraws a previously given approval from a pending action.
func (e *Engine) Revoke(caller SignerID, index uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return err
	}
	action, err := e.actions.Get(index)
	if err != nil {
		return err
	}
	if action.executed {
		return fmt.Errorf("%w: action %d", ErrAlreadyExecuted, index)
	}
	if !action.Approved(caller) {
		return fmt.Errorf("%w: action %d, signer %s", ErrNotApproved, index, caller)
	}

	if err := e.appendRecord(NewActionRecord(record.RevocationRecordType, caller, index)); err != nil {
		return err
	}
	action.revoke(caller)

	metrics.ApprovalRevoked()
	e.Logger.Debug("Approval revoked",
		zap.Stringer("caller", caller),
		zap.Uint64("index", index),
		zap.Int("approvals", action.ApprovalCount()))

	e.notify(&Event{ActionRevoked: &ActionRevokedEvent{
		Caller: caller,
		Index:  index,
		Count:  action.ApprovalCount(),
	}})

	return nil
}

// Execute hands an action that has reached quorum to the executor. The
// quorum threshold is read at execution time, not at proposal time. The
// executed flag flips before the executor runs; if the executor fails, the
// flag stays set and the action can never be retried.
func (e *Engine) Execute(caller SignerID, index uint64) error {
	action, err := e.beginExecution(caller, index)
	if err != nil {
		return err
	}

	success := e.runExecutor(action)

	return e.finishExecution(caller, action, success)
}

func (e *Engine) beginExecution(caller SignerID, index uint64) (*Action, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return nil, err
	}
	action, err := e.actions.Get(index)
	if err != nil {
		return nil, err
	}
	if action.executed {
		return nil, fmt.Errorf("%w: action %d", ErrAlreadyExecuted, index)
	}
	required := e.registry.Threshold()
	if action.ApprovalCount() < required {
		return nil, fmt.Errorf("%w: action %d has %d of %d approvals", ErrQuorumNotMet, index, action.ApprovalCount(), required)
	}

	if err := e.appendRecord(NewActionRecord(record.ExecutionRecordType, caller, index)); err != nil {
		return nil, err
	}

	// Flip the flag before the executor runs, so neither a failure nor a
	// re-entrant call can trigger a second execution.
	action.executed = true
	e.executing = true

	e.Logger.Debug("Executing action",
		zap.Stringer("caller", caller),
		zap.Uint64("index", index),
		zap.Int("approvals", action.ApprovalCount()),
		zap.Int("required", required))

	return action, nil
}

// runExecutor invokes the executor without holding the lock. The executing
// flag set in beginExecution keeps every mutating operation out until the
// executor returns; a panic counts as failure.
func (e *Engine) runExecutor(action *Action) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("Executor panicked",
				zap.Uint64("index", action.index),
				zap.Any("panic", r))
			success = false
		}
	}()
	return e.Executor.Run(action.target, action.value, action.payload)
}

func (e *Engine) finishExecution(caller SignerID, action *Action, success bool) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.executing = false
	metrics.ActionExecuted(success)

	if !success {
		e.Logger.Warn("Executor reported failure; action remains executed",
			zap.Stringer("caller", caller),
			zap.Uint64("index", action.index))
		return fmt.Errorf("%w: action %d", ErrExecutionFailed, action.index)
	}

	e.Logger.Info("Action executed",
		zap.Stringer("caller", caller),
		zap.Uint64("index", action.index),
		zap.Stringer("target", action.target),
		zap.Uint64("value", action.value))

	e.notify(&Event{ActionExecuted: &ActionExecutedEvent{
		Caller: caller,
		Index:  action.index,
	}})

	return nil
}

// AddSigner admits a new identity to the signer set. Any single current
// signer may do so; membership changes are deliberately not quorum-gated.
func (e *Engine) AddSigner(caller SignerID, id SignerID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return err
	}
	if err := e.registry.canAdd(id); err != nil {
		return err
	}

	if err := e.appendRecord(NewSignerRecord(record.SignerAddedRecordType, caller, id)); err != nil {
		return err
	}
	if err := e.registry.Add(id); err != nil {
		return err
	}

	metrics.SetSigners(e.registry.Count())
	e.Logger.Info("Signer added",
		zap.Stringer("caller", caller),
		zap.Stringer("id", id),
		zap.Int("signers", e.registry.Count()))

	e.notify(&Event{SignerAdded: &SignerAddedEvent{
		Caller: caller,
		ID:     id,
	}})

	return nil
}

// RemoveSigner expels an identity from the signer set, clamping the
// threshold down to the shrunk set when needed. Approvals already recorded
// by the removed signer keep counting toward quorum.
func (e *Engine) RemoveSigner(caller SignerID, id SignerID) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.canMutate(caller); err != nil {
		return err
	}
	if err := e.registry.canRemove(id); err != nil {
		return err
	}

	if err := e.appendRecord(NewSignerRecord(record.SignerRemovedRecordType, caller, id)); err != nil {
		return err
	}
	if err := e.registry.Remove(id); err != nil {
		return err
	}

	metrics.SetSigners(e.registry.Count())
	metrics.SetThreshold(e.registry.Threshold())
	e.Logger.Info("Signer removed",
		zap.Stringer("caller", caller),
		zap.Stringer("id", id),
		zap.Int("signers", e.registry.Count()),
		zap.Int("threshold", e.registry.Threshold()))

	e.notify(&Event{SignerRemoved: &SignerRemovedEvent{
		Caller:    caller,
		ID:        id,
		Threshold: e.registry.Threshold(),
	}})

	return nil
}

// Members returns the current signer set, in arbitrary order.
func (e *Engine) Members() []SignerID {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.registry.Members()
}

// IsSigner reports whether the given identity is a current signer.
func (e *Engine) IsSigner(id SignerID) bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.registry.IsSigner(id)
}

// Threshold returns the current quorum threshold.
func (e *Engine) Threshold() int {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.registry.Threshold()
}

// ActionCount returns the number of actions ever proposed.
func (e *Engine) ActionCount() uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.actions.Length()
}

// Action returns a point-in-time copy of the action at the given index.
func (e *Engine) Action(index uint64) (*Action, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	action, err := e.actions.Get(index)
	if err != nil {
		return nil, err
	}
	return action.snapshot(), nil
}

// Approved reports whether the given signer holds an approval record for
// the action at the given index.
func (e *Engine) Approved(index uint64, id SignerID) (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	action, err := e.actions.Get(index)
	if err != nil {
		return false, err
	}
	return action.Approved(id), nil
}
