// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"fmt"
	"slices"
)

// Action is a proposed unit of work awaiting approval and eventual
// execution. Its index is assigned at creation, is never reused, and the
// action is never deleted. The executed flag is write-once.
type Action struct {
	index     uint64
	target    Target
	value     uint64
	payload   []byte
	executed  bool
	approvals map[string]struct{} // SignerID --> approval
}

func (a *Action) Index() uint64 {
	return a.index
}

func (a *Action) Target() Target {
	return a.target
}

func (a *Action) Value() uint64 {
	return a.value
}

func (a *Action) Payload() []byte {
	return a.payload
}

func (a *Action) Executed() bool {
	return a.executed
}

// ApprovalCount returns the number of signer identities holding a live
// approval record for this action. Records from signers that have since
// been removed from the registry still count.
func (a *Action) ApprovalCount() int {
	return len(a.approvals)
}

// Approved reports whether the given identity holds an approval record for
// this action.
func (a *Action) Approved(id SignerID) bool {
	_, approved := a.approvals[string(id)]
	return approved
}

func (a *Action) approve(id SignerID) {
	a.approvals[string(id)] = struct{}{}
}

func (a *Action) revoke(id SignerID) {
	delete(a.approvals, string(id))
}

// snapshot returns a point-in-time copy that later mutations cannot touch.
func (a *Action) snapshot() *Action {
	approvals := make(map[string]struct{}, len(a.approvals))
	for id := range a.approvals {
		approvals[id] = struct{}{}
	}
	return &Action{
		index:     a.index,
		target:    slices.Clone(a.target),
		value:     a.value,
		payload:   slices.Clone(a.payload),
		executed:  a.executed,
		approvals: approvals,
	}
}

// ActionLog is the append-only, indexed sequence of proposed actions.
// It performs no authorization; that is the engine's job.
type ActionLog struct {
	actions []*Action
}

func NewActionLog() *ActionLog {
	return &ActionLog{}
}

// Append creates a new pending action and returns it. The assigned index
// is the log length before the append.
func (l *ActionLog) Append(target Target, value uint64, payload []byte) *Action {
	action := &Action{
		index:     uint64(len(l.actions)),
		target:    target,
		value:     value,
		payload:   payload,
		approvals: make(map[string]struct{}),
	}
	l.actions = append(l.actions, action)
	return action
}

// Get returns the action at the given index.
func (l *ActionLog) Get(index uint64) (*Action, error) {
	if index >= uint64(len(l.actions)) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrUnknownAction, index, len(l.actions))
	}
	return l.actions[index], nil
}

// Length returns the number of actions ever proposed.
func (l *ActionLog) Length() uint64 {
	return uint64(len(l.actions))
}
