package creec

import (
	"errors"
	"fmt"
)

// Offsets of the input header fields, relative to the block base.
const (
	NumBeatsInOffset       = 0x04
	CompressedInOffset     = 0x0c
	EncryptedInOffset      = 0x10
	ECCInOffset            = 0x14
	CompressedPadInOffset  = 0x18
	EncryptedPadInOffset   = 0x1c
	ECCPadInOffset         = 0x20
	NumBeatsOutOffset      = 0x24
	CompressedOutOffset    = 0x28
	EncryptedOutOffset     = 0x2c
	ECCOutOffset           = 0x30
	CompressedPadOutOffset = 0x34
	EncryptedPadOutOffset  = 0x38
	ECCPadOutOffset        = 0x3c

	// BlockSize is the span of the header block.
	BlockSize = 0x40
)

// InOffsets lists the input header offsets in field order.
var InOffsets = [NumFields]uint64{
	NumBeatsInOffset,
	CompressedInOffset,
	EncryptedInOffset,
	ECCInOffset,
	CompressedPadInOffset,
	EncryptedPadInOffset,
	ECCPadInOffset,
}

// OutOffsets lists the output header offsets in field order.
var OutOffsets = [NumFields]uint64{
	NumBeatsOutOffset,
	CompressedOutOffset,
	EncryptedOutOffset,
	ECCOutOffset,
	CompressedPadOutOffset,
	EncryptedPadOutOffset,
	ECCPadOutOffset,
}

var ErrInvalidRegisterMap = errors.New("creec: invalid register map")

// A RegisterMap locates one direction of a CREEC unit in the register space.
// Base is both the enable register and the base of the header block.
type RegisterMap struct {
	WriteQueue uint64 `toml:"write_queue"`
	WriteCount uint64 `toml:"write_count"`
	ReadQueue  uint64 `toml:"read_queue"`
	ReadCount  uint64 `toml:"read_count"`
	Base       uint64 `toml:"base"`
}

// DefaultWriteMap returns the layout of the encode (write path) unit.
func DefaultWriteMap() RegisterMap {
	return RegisterMap{
		WriteQueue: 0x2000,
		WriteCount: 0x2008,
		ReadQueue:  0x2100,
		ReadCount:  0x2108,
		Base:       0x2400,
	}
}

// DefaultReadMap returns the layout of the decode (read path) unit.
func DefaultReadMap() RegisterMap {
	return RegisterMap{
		WriteQueue: 0x2200,
		WriteCount: 0x2208,
		ReadQueue:  0x2300,
		ReadCount:  0x2308,
		Base:       0x2500,
	}
}

// Enable returns the address of the enable register.
func (m RegisterMap) Enable() uint64 {
	return m.Base
}

// OutBeatCount returns the address polled for completion.
func (m RegisterMap) OutBeatCount() uint64 {
	return m.Base + NumBeatsOutOffset
}

// Validate checks alignment and that the queue registers do not fall inside
// the header block.
func (m RegisterMap) Validate() error {
	for name, addr := range map[string]uint64{
		"write queue": m.WriteQueue,
		"read queue":  m.ReadQueue,
	} {
		if addr%8 != 0 {
			return fmt.Errorf("%w: %s 0x%x is not 8-byte aligned",
				ErrInvalidRegisterMap, name, addr)
		}
	}

	if m.WriteQueue == m.ReadQueue {
		return fmt.Errorf("%w: write and read queue share 0x%x",
			ErrInvalidRegisterMap, m.WriteQueue)
	}

	for name, addr := range map[string]uint64{
		"write count": m.WriteCount,
		"read count":  m.ReadCount,
		"base":        m.Base,
	} {
		if addr%4 != 0 {
			return fmt.Errorf("%w: %s 0x%x is not 4-byte aligned",
				ErrInvalidRegisterMap, name, addr)
		}
	}

	for name, addr := range map[string]uint64{
		"write queue": m.WriteQueue,
		"write count": m.WriteCount,
		"read queue":  m.ReadQueue,
		"read count":  m.ReadCount,
	} {
		if addr >= m.Base && addr < m.Base+BlockSize {
			return fmt.Errorf("%w: %s 0x%x overlaps header block at 0x%x",
				ErrInvalidRegisterMap, name, addr, m.Base)
		}
	}

	return nil
}
