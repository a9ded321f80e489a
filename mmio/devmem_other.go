//go:build !linux

package mmio

import "errors"

// ErrUnsupported is returned by OpenDevMem on platforms without mmap of
// physical memory.
var ErrUnsupported = errors.New("mmio: /dev/mem is not supported on this platform")

// DevMem is unavailable on this platform.
type DevMem struct {
	Transport
}

// OpenDevMem always fails on this platform.
func OpenDevMem(string, uint64, int) (*DevMem, error) {
	return nil, ErrUnsupported
}

// Base returns zero.
func (d *DevMem) Base() uint64 {
	return 0
}

// Close does nothing.
func (d *DevMem) Close() error {
	return nil
}
