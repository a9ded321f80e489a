// Package mmio defines the register transport used to drive memory-mapped
// hardware blocks, together with in-memory, hooked, and /dev/mem backed
// implementations and a bounded completion poller.
package mmio

import (
	"errors"
	"fmt"
)

// A Transport performs synchronous 32- and 64-bit register accesses.
// Addresses are absolute offsets into the register space.
type Transport interface {
	Read32(addr uint64) (uint32, error)
	Read64(addr uint64) (uint64, error)
	Write32(addr uint64, value uint32) error
	Write64(addr uint64, value uint64) error
}

var (
	ErrOutOfRange = errors.New("mmio: address beyond register space")
	ErrUnaligned  = errors.New("mmio: unaligned register access")
	ErrClosed     = errors.New("mmio: transport closed")
)

// Kind tells reads and writes apart.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Write {
		return "write"
	}

	return "read"
}

// An Access describes one register access.
type Access struct {
	Kind  Kind
	Addr  uint64
	Width int
	Value uint64
}

func (a Access) String() string {
	return fmt.Sprintf("%s%d 0x%04x = 0x%x", a.Kind, a.Width, a.Addr, a.Value)
}

// AccessError wraps a transport failure with the access that caused it.
type AccessError struct {
	Access Access
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("mmio: %s%d at 0x%x: %v",
		e.Access.Kind, e.Access.Width, e.Access.Addr, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
