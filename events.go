// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

// Event is emitted on every successful state transition. Exactly one of
// its fields is set.
type Event struct {
	SignerAdded    *SignerAddedEvent
	SignerRemoved  *SignerRemovedEvent
	ActionProposed *ActionProposedEvent
	ActionApproved *ActionApprovedEvent
	ActionRevoked  *ActionRevokedEvent
	ActionExecuted *ActionExecutedEvent
}

type SignerAddedEvent struct {
	Caller SignerID
	ID     SignerID
}

type SignerRemovedEvent struct {
	Caller SignerID
	ID     SignerID
	// Threshold is the quorum threshold after the removal, which may have
	// been clamped down to the shrunk signer set.
	Threshold int
}

type ActionProposedEvent struct {
	Caller  SignerID
	Index   uint64
	Target  Target
	Value   uint64
	Payload []byte
}

type ActionApprovedEvent struct {
	Caller SignerID
	Index  uint64
	Count  int
}

type ActionRevokedEvent struct {
	Caller SignerID
	Index  uint64
	Count  int
}

type ActionExecutedEvent struct {
	Caller SignerID
	Index  uint64
}
