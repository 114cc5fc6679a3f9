// Copyright (C) 2025-2026, the multi-sig-wallet authors. All rights reserved.
// See the file LICENSE for licensing terms.

package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc64"
	"io"
)

const (
	versionLen  = 1
	typeLen     = 2
	sizeLen     = 4
	checksumLen = 8

	headerLen = versionLen + typeLen + sizeLen

	typeOffset    = versionLen
	sizeOffset    = typeOffset + typeLen
	payloadOffset = sizeOffset + sizeLen

	// maxPayloadSize bounds the allocation made while reading a record back.
	maxPayloadSize = 100_000_000
)

var (
	ErrInvalidCRC      = errors.New("invalid CRC checksum")
	ErrPayloadTooLarge = errors.New("record payload too large")

	crcTable = crc64.MakeTable(crc64.ECMA)
)

// Record is a versioned, typed, CRC64-checksummed unit of the write ahead
// log.
type Record struct {
	Version uint8
	Type    uint16
	Payload []byte
}

// Bytes encodes the record as header, payload and trailing checksum.
func (r *Record) Bytes() []byte {
	buff := make([]byte, headerLen+len(r.Payload)+checksumLen)

	buff[0] = r.Version
	binary.BigEndian.PutUint16(buff[typeOffset:], r.Type)
	binary.BigEndian.PutUint32(buff[sizeOffset:], uint32(len(r.Payload)))
	copy(buff[payloadOffset:], r.Payload)

	checksumOffset := payloadOffset + len(r.Payload)
	crc := crc64.New(crcTable)
	if _, err := crc.Write(buff[:checksumOffset]); err != nil {
		panic(fmt.Sprintf("CRC checksum failed: %v", err))
	}
	return crc.Sum(buff[:checksumOffset])
}

// FromBytes reads a record from the reader, returning how many bytes were
// consumed. A checksum mismatch is reported as ErrInvalidCRC.
func (r *Record) FromBytes(in io.Reader) (int, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(in, header); err != nil {
		return 0, err
	}

	payloadLen := binary.BigEndian.Uint32(header[sizeOffset:])
	if payloadLen > maxPayloadSize {
		return 0, fmt.Errorf("%w: record indicates %d bytes", ErrPayloadTooLarge, payloadLen)
	}

	payloadAndChecksum := make([]byte, payloadLen+checksumLen)
	if _, err := io.ReadFull(in, payloadAndChecksum); err != nil {
		return 0, err
	}
	payload := payloadAndChecksum[:payloadLen]

	crc := crc64.New(crcTable)
	if _, err := crc.Write(header); err != nil {
		return 0, fmt.Errorf("CRC checksum failed: %w", err)
	}
	if _, err := crc.Write(payload); err != nil {
		return 0, fmt.Errorf("CRC checksum failed: %w", err)
	}
	if !bytes.Equal(payloadAndChecksum[payloadLen:], crc.Sum(nil)) {
		return 0, ErrInvalidCRC
	}

	r.Version = header[0]
	r.Type = binary.BigEndian.Uint16(header[typeOffset:])
	r.Payload = payload

	return headerLen + int(payloadLen) + checksumLen, nil
}
