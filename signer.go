// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

const (
	// MinSigners is the smallest signer set the registry accepts, both at
	// construction and after every removal.
	MinSigners = 3

	// MinThreshold is the smallest quorum threshold the registry accepts.
	MinThreshold = 2
)

// SignerID is an opaque identity authorized to operate on the wallet.
type SignerID []byte

func (id SignerID) Equals(other SignerID) bool {
	return bytes.Equal(id, other)
}

func (id SignerID) String() string {
	return hex.EncodeToString(id)
}

// Target is an opaque descriptor of where an action's effect is applied.
type Target []byte

func (t Target) String() string {
	return hex.EncodeToString(t)
}

// Registry owns the signer set and the quorum threshold. It enforces the
// structural invariants on membership: at least MinSigners members at all
// times, and MinThreshold <= required <= member count. Who is allowed to
// change membership is the engine's concern, not the registry's.
type Registry struct {
	members  map[string]SignerID
	required int
}

// NewRegistry establishes the initial membership and threshold.
func NewRegistry(signers []SignerID, required int) (*Registry, error) {
	if len(signers) < MinSigners {
		return nil, fmt.Errorf("%w: %d signers, need at least %d", ErrInvalidConfiguration, len(signers), MinSigners)
	}
	if required < MinThreshold || required > len(signers) {
		return nil, fmt.Errorf("%w: threshold %d out of range [%d, %d]", ErrInvalidConfiguration, required, MinThreshold, len(signers))
	}

	members := make(map[string]SignerID, len(signers))
	for _, signer := range signers {
		if len(signer) == 0 {
			return nil, fmt.Errorf("%w: empty signer identity", ErrInvalidConfiguration)
		}
		if _, exists := members[string(signer)]; exists {
			return nil, fmt.Errorf("%w: duplicate signer %s", ErrInvalidConfiguration, signer)
		}
		members[string(signer)] = signer
	}

	return &Registry{
		members:  members,
		required: required,
	}, nil
}

// IsSigner reports whether the given identity is a current member.
func (r *Registry) IsSigner(id SignerID) bool {
	_, exists := r.members[string(id)]
	return exists
}

// Threshold returns the number of distinct approvals needed for execution.
func (r *Registry) Threshold() int {
	return r.required
}

// Count returns the current number of signers.
func (r *Registry) Count() int {
	return len(r.members)
}

// Members returns a copy of the current signer set, in arbitrary order.
func (r *Registry) Members() []SignerID {
	members := make([]SignerID, 0, len(r.members))
	for _, signer := range r.members {
		members = append(members, signer)
	}
	return members
}

func (r *Registry) canAdd(id SignerID) error {
	if len(id) == 0 {
		return ErrInvalidIdentity
	}
	if r.IsSigner(id) {
		return fmt.Errorf("%w: %s", ErrAlreadySigner, id)
	}
	return nil
}

// Add inserts a new signer. The threshold is left untouched.
func (r *Registry) Add(id SignerID) error {
	if err := r.canAdd(id); err != nil {
		return err
	}
	r.members[string(id)] = id
	return nil
}

func (r *Registry) canRemove(id SignerID) error {
	if !r.IsSigner(id) {
		return fmt.Errorf("%w: %s", ErrUnknownSigner, id)
	}
	if len(r.members) <= MinSigners {
		return fmt.Errorf("%w: %d signers remain", ErrMinimumSigners, len(r.members))
	}
	return nil
}

// Remove deletes a signer. If the threshold exceeds the shrunk set, it is
// clamped down to the new size.
func (r *Registry) Remove(id SignerID) error {
	if err := r.canRemove(id); err != nil {
		return err
	}
	delete(r.members, string(id))
	if r.required > len(r.members) {
		r.required = len(r.members)
	}
	return nil
}
