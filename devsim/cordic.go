package devsim

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/cordic"
	"github.com/sarchlab/mmiodrv/mmio"
)

// CORDIC models a CORDIC unit with an ideal (infinitely many iterations)
// datapath. Each operand pushed into the write queue produces one result in
// the read queue after Latency polls of the read count register.
type CORDIC struct {
	lock sync.Mutex

	name  string
	regs  cordic.RegisterMap
	codec *cordic.Codec
	log   zerolog.Logger

	Latency int

	inflight  []uint64
	pollsLeft int
	readQ     fifo
}

// CORDICBuilder creates simulated CORDIC units.
type CORDICBuilder struct {
	regs    cordic.RegisterMap
	cfg     cordic.Config
	latency int
	log     zerolog.Logger
}

// MakeCORDICBuilder returns a builder for a unit with the reference layout.
func MakeCORDICBuilder() CORDICBuilder {
	return CORDICBuilder{
		regs: cordic.DefaultRegisterMap(),
		cfg:  cordic.DefaultConfig(),
		log:  zerolog.Nop(),
	}
}

// WithRegisterMap sets the queue addresses.
func (b CORDICBuilder) WithRegisterMap(m cordic.RegisterMap) CORDICBuilder {
	b.regs = m
	return b
}

// WithConfig sets the lane formats.
func (b CORDICBuilder) WithConfig(c cordic.Config) CORDICBuilder {
	b.cfg = c
	return b
}

// WithLatency sets how many empty read count polls precede each result.
func (b CORDICBuilder) WithLatency(polls int) CORDICBuilder {
	b.latency = polls
	return b
}

// WithLogger sets the logger.
func (b CORDICBuilder) WithLogger(l zerolog.Logger) CORDICBuilder {
	b.log = l
	return b
}

// Build creates the unit. It panics if the formats are invalid.
func (b CORDICBuilder) Build(name string) *CORDIC {
	codec, err := cordic.NewCodec(b.cfg)
	if err != nil {
		panic(err)
	}

	return &CORDIC{
		name:    name,
		regs:    b.regs,
		codec:   codec,
		log:     b.log.With().Str("device", name).Logger(),
		Latency: b.latency,
	}
}

// Name returns the device name.
func (d *CORDIC) Name() string {
	return d.name
}

// Claims reports whether addr belongs to this unit.
func (d *CORDIC) Claims(addr uint64) bool {
	switch addr {
	case d.regs.WriteQueue, d.regs.WriteCount, d.regs.ReadQueue, d.regs.ReadCount:
		return true
	}

	return false
}

func (d *CORDIC) unmapped(kind mmio.Kind, addr uint64, width int) error {
	return &mmio.AccessError{
		Access: mmio.Access{Kind: kind, Addr: addr, Width: width},
		Err:    mmio.ErrOutOfRange,
	}
}

// Read32 implements mmio.Transport.
func (d *CORDIC) Read32(addr uint64) (uint32, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	switch addr {
	case d.regs.WriteCount:
		return uint32(len(d.inflight)), nil
	case d.regs.ReadCount:
		d.advance()
		return uint32(d.readQ.size()), nil
	}

	return 0, d.unmapped(mmio.Read, addr, 32)
}

// Read64 implements mmio.Transport.
func (d *CORDIC) Read64(addr uint64) (uint64, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if addr != d.regs.ReadQueue {
		return 0, d.unmapped(mmio.Read, addr, 64)
	}

	v, err := d.readQ.pop()
	if err != nil {
		return 0, &mmio.AccessError{
			Access: mmio.Access{Kind: mmio.Read, Addr: addr, Width: 64},
			Err:    err,
		}
	}

	return v, nil
}

// Write32 implements mmio.Transport. The unit has no 32-bit writable
// registers.
func (d *CORDIC) Write32(addr uint64, _ uint32) error {
	return d.unmapped(mmio.Write, addr, 32)
}

// Write64 implements mmio.Transport.
func (d *CORDIC) Write64(addr uint64, value uint64) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if addr != d.regs.WriteQueue {
		return d.unmapped(mmio.Write, addr, 64)
	}

	if len(d.inflight) == 0 {
		d.pollsLeft = d.Latency
	}

	d.inflight = append(d.inflight, value)

	return nil
}

func (d *CORDIC) advance() {
	if len(d.inflight) == 0 {
		return
	}

	if d.pollsLeft > 0 {
		d.pollsLeft--
		return
	}

	for _, raw := range d.inflight {
		_ = d.readQ.push(d.compute(raw))
	}

	d.inflight = nil
}

func (d *CORDIC) compute(raw uint64) uint64 {
	cfg := d.codec.Config()
	in := d.codec.Unpack(raw)
	x, y, z := in.Float(cfg)

	var out cordic.Operand
	if in.Vectoring {
		out = Vectoring(x, y, z)
	} else {
		out = Rotate(x, y, z)
	}

	d.log.Debug().
		Float64("x", x).Float64("y", y).Float64("z", z).
		Bool("vectoring", in.Vectoring).
		Float64("out_x", out.X).Float64("out_y", out.Y).Float64("out_z", out.Z).
		Msg("cordic step")

	return d.codec.Pack(out)
}

// Rotate rotates (x, y) by z radians and drives the residual angle to zero.
func Rotate(x, y, z float64) cordic.Operand {
	sin, cos := math.Sincos(z)

	return cordic.Operand{
		X: x*cos - y*sin,
		Y: x*sin + y*cos,
	}
}

// Vectoring rotates (x, y) onto the positive x axis and adds the rotation
// angle to z.
func Vectoring(x, y, z float64) cordic.Operand {
	return cordic.Operand{
		X:         math.Hypot(x, y),
		Z:         z + math.Atan2(y, x),
		Vectoring: true,
	}
}
