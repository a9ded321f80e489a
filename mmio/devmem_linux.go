//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem maps a window of a physical memory device (normally /dev/mem) and
// accesses registers with single aligned loads and stores. Addresses passed
// to the Transport methods are offsets from the window base.
type DevMem struct {
	file *os.File
	mem  []byte
	base uint64
}

// OpenDevMem maps size bytes of path starting at physical address base. The
// base must be page aligned.
func OpenDevMem(path string, base uint64, size int) (*DevMem, error) {
	if base%uint64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("%w: base 0x%x is not page aligned",
			ErrUnaligned, base)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}

	mem, err := unix.Mmap(int(f.Fd()), int64(base), size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmio: mmap %s at 0x%x: %w", path, base, err)
	}

	return &DevMem{file: f, mem: mem, base: base}, nil
}

// Base returns the physical address of the mapped window.
func (d *DevMem) Base() uint64 {
	return d.base
}

// Close unmaps the window and closes the device.
func (d *DevMem) Close() error {
	if d.mem == nil {
		return nil
	}

	err := unix.Munmap(d.mem)
	d.mem = nil

	if cerr := d.file.Close(); err == nil {
		err = cerr
	}

	return err
}

func (d *DevMem) word(addr uint64, width uint64) (unsafe.Pointer, error) {
	if d.mem == nil {
		return nil, ErrClosed
	}

	if addr%width != 0 {
		return nil, ErrUnaligned
	}

	if addr+width > uint64(len(d.mem)) {
		return nil, ErrOutOfRange
	}

	return unsafe.Pointer(&d.mem[addr]), nil
}

// Read32 loads a 32-bit register.
func (d *DevMem) Read32(addr uint64) (uint32, error) {
	p, err := d.word(addr, 4)
	if err != nil {
		return 0, &AccessError{Access{Read, addr, 32, 0}, err}
	}

	return atomic.LoadUint32((*uint32)(p)), nil
}

// Read64 loads a 64-bit register.
func (d *DevMem) Read64(addr uint64) (uint64, error) {
	p, err := d.word(addr, 8)
	if err != nil {
		return 0, &AccessError{Access{Read, addr, 64, 0}, err}
	}

	return atomic.LoadUint64((*uint64)(p)), nil
}

// Write32 stores a 32-bit register.
func (d *DevMem) Write32(addr uint64, value uint32) error {
	p, err := d.word(addr, 4)
	if err != nil {
		return &AccessError{Access{Write, addr, 32, uint64(value)}, err}
	}

	atomic.StoreUint32((*uint32)(p), value)

	return nil
}

// Write64 stores a 64-bit register.
func (d *DevMem) Write64(addr uint64, value uint64) error {
	p, err := d.word(addr, 8)
	if err != nil {
		return &AccessError{Access{Write, addr, 64, value}, err}
	}

	atomic.StoreUint64((*uint64)(p), value)

	return nil
}
