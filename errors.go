// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import "errors"

var (
	// ErrInvalidConfiguration is returned when the engine or registry is
	// constructed with malformed parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnauthorized is returned when the caller is not a current signer.
	ErrUnauthorized = errors.New("caller is not a signer")

	// ErrUnknownAction is returned when an action index is out of range.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownSigner is returned when removing an identity that is not a
	// current signer.
	ErrUnknownSigner = errors.New("unknown signer")

	// ErrInvalidIdentity is returned when an empty identity is supplied.
	ErrInvalidIdentity = errors.New("invalid signer identity")

	// ErrAlreadySigner is returned when adding an identity that is already
	// a signer.
	ErrAlreadySigner = errors.New("identity is already a signer")

	// ErrDuplicateApproval is returned when a signer approves an action it
	// has already approved.
	ErrDuplicateApproval = errors.New("action already approved by signer")

	// ErrNotApproved is returned when a signer revokes an approval it never
	// gave.
	ErrNotApproved = errors.New("action not approved by signer")

	// ErrAlreadyExecuted is returned when an action that has already been
	// executed is approved, revoked or executed again.
	ErrAlreadyExecuted = errors.New("action already executed")

	// ErrMinimumSigners is returned when a removal would shrink the signer
	// set below the minimum.
	ErrMinimumSigners = errors.New("removal would leave too few signers")

	// ErrQuorumNotMet is returned when an action is executed with fewer
	// approvals than the current threshold.
	ErrQuorumNotMet = errors.New("not enough approvals")

	// ErrExecutionFailed is returned when the executor reports failure.
	// The action stays marked executed: a failed external call is never
	// retried.
	ErrExecutionFailed = errors.New("executor reported failure")

	// ErrExecutionInProgress is returned when a mutating operation arrives
	// while the engine is waiting on the executor.
	ErrExecutionInProgress = errors.New("execution in progress")

	// ErrNotStarted is returned when a mutating operation is invoked before
	// Start.
	ErrNotStarted = errors.New("engine not started")
)
