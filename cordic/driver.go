package cordic

import (
	"context"
	"fmt"
	"log"

	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/mmio"
)

// RegisterMap locates the queues of a CORDIC unit.
type RegisterMap struct {
	WriteQueue uint64 `toml:"write_queue"`
	WriteCount uint64 `toml:"write_count"`
	ReadQueue  uint64 `toml:"read_queue"`
	ReadCount  uint64 `toml:"read_count"`
}

// DefaultRegisterMap returns the queue layout of the reference design.
func DefaultRegisterMap() RegisterMap {
	return RegisterMap{
		WriteQueue: 0x2000,
		WriteCount: 0x2008,
		ReadQueue:  0x2100,
		ReadCount:  0x2108,
	}
}

// A Driver submits operands to a CORDIC unit and collects its results.
type Driver struct {
	name      string
	transport mmio.Transport
	regs      RegisterMap
	codec     *Codec
	poll      mmio.PollPolicy
	log       zerolog.Logger
}

// Builder creates Drivers.
type Builder struct {
	transport mmio.Transport
	regs      RegisterMap
	cfg       Config
	poll      mmio.PollPolicy
	log       zerolog.Logger
}

// MakeBuilder returns a Builder with the reference layout and formats.
func MakeBuilder() Builder {
	return Builder{
		regs: DefaultRegisterMap(),
		cfg:  DefaultConfig(),
		poll: mmio.DefaultPollPolicy(),
		log:  zerolog.Nop(),
	}
}

// WithTransport sets the register transport.
func (b Builder) WithTransport(t mmio.Transport) Builder {
	b.transport = t
	return b
}

// WithRegisterMap sets the queue layout.
func (b Builder) WithRegisterMap(m RegisterMap) Builder {
	b.regs = m
	return b
}

// WithConfig sets the fixed-point formats.
func (b Builder) WithConfig(c Config) Builder {
	b.cfg = c
	return b
}

// WithPollPolicy sets how the driver waits for results.
func (b Builder) WithPollPolicy(p mmio.PollPolicy) Builder {
	b.poll = p
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l zerolog.Logger) Builder {
	b.log = l
	return b
}

// Build creates a Driver. It panics if no transport is set or the formats do
// not fit in one word.
func (b Builder) Build(name string) *Driver {
	if b.transport == nil {
		log.Panicf("cordic: driver %s has no transport", name)
	}

	codec, err := NewCodec(b.cfg)
	if err != nil {
		log.Panicf("cordic: driver %s: %v", name, err)
	}

	return &Driver{
		name:      name,
		transport: b.transport,
		regs:      b.regs,
		codec:     codec,
		poll:      b.poll,
		log:       b.log.With().Str("driver", name).Logger(),
	}
}

// Codec returns the operand codec.
func (d *Driver) Codec() *Codec {
	return d.codec
}

// Submit packs op and pushes it into the write queue.
func (d *Driver) Submit(op Operand) error {
	raw := d.codec.Pack(op)

	if err := d.transport.Write64(d.regs.WriteQueue, raw); err != nil {
		return fmt.Errorf("cordic %s: submit: %w", d.name, err)
	}

	d.log.Debug().
		Float64("x", op.X).Float64("y", op.Y).Float64("z", op.Z).
		Bool("vectoring", op.Vectoring).
		Uint64("raw", raw).
		Msg("operand submitted")

	return nil
}

// Collect waits for a result to appear in the read queue and pops it.
func (d *Driver) Collect(ctx context.Context) (Output, error) {
	_, err := mmio.Poll(ctx, d.poll, func() (bool, error) {
		n, err := d.transport.Read32(d.regs.ReadCount)
		return n != 0, err
	})
	if err != nil {
		return Output{}, fmt.Errorf("cordic %s: wait for result: %w", d.name, err)
	}

	raw, err := d.transport.Read64(d.regs.ReadQueue)
	if err != nil {
		return Output{}, fmt.Errorf("cordic %s: collect: %w", d.name, err)
	}

	out := d.codec.Unpack(raw)
	d.log.Debug().
		Int64("x", out.X).Int64("y", out.Y).Int64("z", out.Z).
		Uint64("raw", raw).
		Msg("result collected")

	return out, nil
}

// Compute submits op and waits for its result.
func (d *Driver) Compute(ctx context.Context, op Operand) (Output, error) {
	if err := d.Submit(op); err != nil {
		return Output{}, err
	}

	return d.Collect(ctx)
}
