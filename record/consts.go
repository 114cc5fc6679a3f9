// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package record

const (
	UndefinedRecordType uint16 = iota
	ConfigRecordType
	ProposalRecordType
	ApprovalRecordType
	RevocationRecordType
	ExecutionRecordType
	SignerAddedRecordType
	SignerRemovedRecordType
)
