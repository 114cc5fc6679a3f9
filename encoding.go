// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"encoding/binary"
	"errors"

	"github.com/IgorLTS10/multi-sig-wallet/record"
)

// recordVersion is the version stamped on every record this engine writes.
const recordVersion uint8 = 0

var errMalformedRecord = errors.New("malformed record payload")

func appendChunk(buff []byte, chunk []byte) []byte {
	buff = binary.BigEndian.AppendUint32(buff, uint32(len(chunk)))
	return append(buff, chunk...)
}

func readChunk(buff []byte, pos int) ([]byte, int, error) {
	if len(buff)-pos < 4 {
		return nil, 0, errMalformedRecord
	}
	n := int(binary.BigEndian.Uint32(buff[pos:]))
	pos += 4
	if len(buff)-pos < n {
		return nil, 0, errMalformedRecord
	}
	return buff[pos : pos+n], pos + n, nil
}

func readUint64(buff []byte, pos int) (uint64, int, error) {
	if len(buff)-pos < 8 {
		return 0, 0, errMalformedRecord
	}
	return binary.BigEndian.Uint64(buff[pos:]), pos + 8, nil
}

// NewConfigRecord encodes the signer set and threshold the log was
// established with. It is always the first record of a wallet's log.
func NewConfigRecord(signers []SignerID, required int) *record.Record {
	buff := binary.BigEndian.AppendUint32(nil, uint32(required))
	buff = binary.BigEndian.AppendUint32(buff, uint32(len(signers)))
	for _, signer := range signers {
		buff = appendChunk(buff, signer)
	}
	return &record.Record{
		Version: recordVersion,
		Type:    record.ConfigRecordType,
		Payload: buff,
	}
}

func ParseConfigRecord(payload []byte) ([]SignerID, int, error) {
	if len(payload) < 8 {
		return nil, 0, errMalformedRecord
	}
	required := int(binary.BigEndian.Uint32(payload))
	count := int(binary.BigEndian.Uint32(payload[4:]))
	// every signer chunk carries at least its 4 byte length prefix
	if count > (len(payload)-8)/4 {
		return nil, 0, errMalformedRecord
	}

	signers := make([]SignerID, 0, count)
	pos := 8
	for i := 0; i < count; i++ {
		chunk, next, err := readChunk(payload, pos)
		if err != nil {
			return nil, 0, err
		}
		signers = append(signers, SignerID(chunk))
		pos = next
	}
	return signers, required, nil
}

// Proposal is the decoded form of a proposal record.
type Proposal struct {
	Caller  SignerID
	Index   uint64
	Target  Target
	Value   uint64
	Payload []byte
}

func NewProposalRecord(caller SignerID, index uint64, target Target, value uint64, payload []byte) *record.Record {
	buff := appendChunk(nil, caller)
	buff = binary.BigEndian.AppendUint64(buff, index)
	buff = appendChunk(buff, target)
	buff = binary.BigEndian.AppendUint64(buff, value)
	buff = appendChunk(buff, payload)
	return &record.Record{
		Version: recordVersion,
		Type:    record.ProposalRecordType,
		Payload: buff,
	}
}

func ParseProposalRecord(payload []byte) (Proposal, error) {
	var (
		p   Proposal
		pos int
		err error
	)
	var chunk []byte
	if chunk, pos, err = readChunk(payload, pos); err != nil {
		return Proposal{}, err
	}
	p.Caller = SignerID(chunk)
	if p.Index, pos, err = readUint64(payload, pos); err != nil {
		return Proposal{}, err
	}
	if chunk, pos, err = readChunk(payload, pos); err != nil {
		return Proposal{}, err
	}
	p.Target = Target(chunk)
	if p.Value, pos, err = readUint64(payload, pos); err != nil {
		return Proposal{}, err
	}
	if p.Payload, _, err = readChunk(payload, pos); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// NewActionRecord encodes an approval, revocation or execution: the acting
// signer and the action index.
func NewActionRecord(recordType uint16, caller SignerID, index uint64) *record.Record {
	buff := appendChunk(nil, caller)
	buff = binary.BigEndian.AppendUint64(buff, index)
	return &record.Record{
		Version: recordVersion,
		Type:    recordType,
		Payload: buff,
	}
}

func ParseActionRecord(payload []byte) (SignerID, uint64, error) {
	chunk, pos, err := readChunk(payload, 0)
	if err != nil {
		return nil, 0, err
	}
	index, _, err := readUint64(payload, pos)
	if err != nil {
		return nil, 0, err
	}
	return SignerID(chunk), index, nil
}

// NewSignerRecord encodes a membership change: the acting signer and the
// identity added or removed.
func NewSignerRecord(recordType uint16, caller SignerID, id SignerID) *record.Record {
	buff := appendChunk(nil, caller)
	buff = appendChunk(buff, id)
	return &record.Record{
		Version: recordVersion,
		Type:    recordType,
		Payload: buff,
	}
}

func ParseSignerRecord(payload []byte) (SignerID, SignerID, error) {
	caller, pos, err := readChunk(payload, 0)
	if err != nil {
		return nil, nil, err
	}
	id, _, err := readChunk(payload, pos)
	if err != nil {
		return nil, nil, err
	}
	return SignerID(caller), SignerID(id), nil
}
