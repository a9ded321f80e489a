package devsim

import (
	"github.com/sarchlab/mmiodrv/mmio"
)

// A Device is a simulated peripheral that owns part of the address space.
type Device interface {
	mmio.Transport
	Name() string
	Claims(addr uint64) bool
}

// A Bus routes each access to the first device that claims the address.
type Bus struct {
	devices []Device
}

// NewBus creates a bus over devices. Earlier devices take precedence.
func NewBus(devices ...Device) *Bus {
	return &Bus{devices: devices}
}

// Attach adds a device behind the existing ones.
func (b *Bus) Attach(d Device) {
	b.devices = append(b.devices, d)
}

// Devices returns the attached devices.
func (b *Bus) Devices() []Device {
	return b.devices
}

func (b *Bus) route(kind mmio.Kind, addr uint64, width int) (Device, error) {
	for _, d := range b.devices {
		if d.Claims(addr) {
			return d, nil
		}
	}

	return nil, &mmio.AccessError{
		Access: mmio.Access{Kind: kind, Addr: addr, Width: width},
		Err:    mmio.ErrOutOfRange,
	}
}

// Read32 implements mmio.Transport.
func (b *Bus) Read32(addr uint64) (uint32, error) {
	d, err := b.route(mmio.Read, addr, 32)
	if err != nil {
		return 0, err
	}

	return d.Read32(addr)
}

// Read64 implements mmio.Transport.
func (b *Bus) Read64(addr uint64) (uint64, error) {
	d, err := b.route(mmio.Read, addr, 64)
	if err != nil {
		return 0, err
	}

	return d.Read64(addr)
}

// Write32 implements mmio.Transport.
func (b *Bus) Write32(addr uint64, value uint32) error {
	d, err := b.route(mmio.Write, addr, 32)
	if err != nil {
		return err
	}

	return d.Write32(addr, value)
}

// Write64 implements mmio.Transport.
func (b *Bus) Write64(addr uint64, value uint64) error {
	d, err := b.route(mmio.Write, addr, 64)
	if err != nil {
		return err
	}

	return d.Write64(addr, value)
}
