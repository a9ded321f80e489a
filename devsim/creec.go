package devsim

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/mmio"
)

// CREEC models one direction of a CREEC unit. Writes to the input header
// block and the enable register are latched; beats written to the write
// queue are buffered. Once the unit is enabled and the announced number of
// beats has arrived, the pipeline runs and, after Latency polls of the output
// beat count, the output header and beats become visible.
//
// Any address outside the queues is backed by a plain register file, so
// several devices can share one address space through a Bus.
type CREEC struct {
	lock sync.Mutex

	name     string
	regs     creec.RegisterMap
	dir      Direction
	pipeline Pipeline
	framer   *beat.Framer
	file     *mmio.RegisterFile
	log      zerolog.Logger

	Latency int
	Stall   bool

	writeQ    fifo
	readQ     fifo
	enabled   bool
	pending   *result
	pollsLeft int

	Transfers int
}

type result struct {
	header creec.Header
	beats  []uint64
}

// CREECBuilder creates simulated CREEC units.
type CREECBuilder struct {
	regs       creec.RegisterMap
	dir        Direction
	pipeline   Pipeline
	framer     *beat.Framer
	latency    int
	stall      bool
	queueDepth int
	log        zerolog.Logger
}

// MakeCREECBuilder returns a builder for an encode unit at the default write
// path addresses that passes data through.
func MakeCREECBuilder() CREECBuilder {
	return CREECBuilder{
		regs:     creec.DefaultWriteMap(),
		dir:      Encode,
		pipeline: Passthrough,
		framer:   beat.DefaultFramer(),
		log:      zerolog.Nop(),
	}
}

// WithRegisterMap sets the addresses the unit answers to.
func (b CREECBuilder) WithRegisterMap(m creec.RegisterMap) CREECBuilder {
	b.regs = m
	return b
}

// WithDirection sets whether the unit encodes or decodes.
func (b CREECBuilder) WithDirection(d Direction) CREECBuilder {
	b.dir = d
	return b
}

// WithPipeline sets the stage model.
func (b CREECBuilder) WithPipeline(p Pipeline) CREECBuilder {
	b.pipeline = p
	return b
}

// WithFramer sets the byte order the unit uses inside beats.
func (b CREECBuilder) WithFramer(f *beat.Framer) CREECBuilder {
	b.framer = f
	return b
}

// WithLatency sets how many completion polls read zero before the output is
// published.
func (b CREECBuilder) WithLatency(polls int) CREECBuilder {
	b.latency = polls
	return b
}

// WithStall makes the unit accept input but never complete.
func (b CREECBuilder) WithStall() CREECBuilder {
	b.stall = true
	return b
}

// WithQueueDepth bounds the write queue. Zero means unbounded.
func (b CREECBuilder) WithQueueDepth(depth int) CREECBuilder {
	b.queueDepth = depth
	return b
}

// WithLogger sets the logger.
func (b CREECBuilder) WithLogger(l zerolog.Logger) CREECBuilder {
	b.log = l
	return b
}

// Build creates the unit.
func (b CREECBuilder) Build(name string) *CREEC {
	return &CREEC{
		name:     name,
		regs:     b.regs,
		dir:      b.dir,
		pipeline: b.pipeline,
		framer:   b.framer,
		file:     mmio.NewRegisterFile(b.regs.Base + creec.BlockSize),
		log:      b.log.With().Str("device", name).Logger(),
		Latency:  b.latency,
		Stall:    b.stall,
		writeQ:   fifo{capacity: b.queueDepth},
	}
}

// Name returns the device name.
func (d *CREEC) Name() string {
	return d.name
}

// RegisterMap returns the addresses the unit answers to.
func (d *CREEC) RegisterMap() creec.RegisterMap {
	return d.regs
}

// Claims reports whether addr belongs to this unit.
func (d *CREEC) Claims(addr uint64) bool {
	switch addr {
	case d.regs.WriteQueue, d.regs.WriteCount, d.regs.ReadQueue, d.regs.ReadCount:
		return true
	}

	return addr >= d.regs.Base && addr < d.regs.Base+creec.BlockSize
}

// Read32 implements mmio.Transport.
func (d *CREEC) Read32(addr uint64) (uint32, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	switch addr {
	case d.regs.WriteCount:
		return uint32(d.writeQ.size()), nil
	case d.regs.ReadCount:
		return uint32(d.readQ.size()), nil
	case d.regs.OutBeatCount():
		d.tryPublish()
	}

	return d.file.Read32(addr)
}

// Read64 implements mmio.Transport.
func (d *CREEC) Read64(addr uint64) (uint64, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if addr == d.regs.ReadQueue {
		v, err := d.readQ.pop()
		if err != nil {
			return 0, &mmio.AccessError{
				Access: mmio.Access{Kind: mmio.Read, Addr: addr, Width: 64},
				Err:    err,
			}
		}

		return v, nil
	}

	return d.file.Read64(addr)
}

// Write32 implements mmio.Transport.
func (d *CREEC) Write32(addr uint64, value uint32) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if addr == d.regs.Base+creec.NumBeatsInOffset {
		d.reset()
	}

	if err := d.file.Write32(addr, value); err != nil {
		return err
	}

	if addr == d.regs.Enable() {
		d.enabled = value != 0
		d.tryProcess()
	}

	return nil
}

// Write64 implements mmio.Transport.
func (d *CREEC) Write64(addr uint64, value uint64) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if addr == d.regs.WriteQueue {
		if err := d.writeQ.push(value); err != nil {
			return &mmio.AccessError{
				Access: mmio.Access{Kind: mmio.Write, Addr: addr, Width: 64, Value: value},
				Err:    err,
			}
		}

		d.tryProcess()

		return nil
	}

	return d.file.Write64(addr, value)
}

// reset clears the output of the previous transfer.
func (d *CREEC) reset() {
	d.pending = nil
	d.readQ.clear()

	for _, off := range creec.OutOffsets {
		_ = d.file.Write32(d.regs.Base+off, 0)
	}
}

func (d *CREEC) inputHeader() creec.Header {
	var f [creec.NumFields]uint32
	for i, off := range creec.InOffsets {
		f[i], _ = d.file.Read32(d.regs.Base + off)
	}

	return creec.HeaderFromFields(f)
}

func (d *CREEC) tryProcess() {
	if !d.enabled || d.Stall || d.pending != nil {
		return
	}

	in := d.inputHeader()
	if in.BeatCount == 0 || d.writeQ.size() < int(in.BeatCount) {
		return
	}

	payload := d.framer.FromBeats(d.writeQ.take(int(in.BeatCount)))
	out, data := d.pipeline.Process(d.dir, in, payload)

	if rem := len(data) % d.framer.BytesPerBeat(); rem != 0 {
		data = append(data, make([]byte, d.framer.BytesPerBeat()-rem)...)
	}

	beats, _ := d.framer.ToBeats(data)
	out.BeatCount = uint32(len(beats))

	d.pending = &result{header: out, beats: beats}
	d.pollsLeft = d.Latency
	d.enabled = false
	_ = d.file.Write32(d.regs.Enable(), 0)

	d.log.Debug().
		Stringer("direction", d.dir).
		Stringer("in", in).
		Stringer("out", out).
		Msg("transfer processed")
}

func (d *CREEC) tryPublish() {
	if d.pending == nil {
		return
	}

	if d.pollsLeft > 0 {
		d.pollsLeft--
		return
	}

	for i, v := range d.pending.header.Fields() {
		_ = d.file.Write32(d.regs.Base+creec.OutOffsets[i], v)
	}

	for _, b := range d.pending.beats {
		_ = d.readQ.push(b)
	}

	d.pending = nil
	d.Transfers++
}

// QueueDepths returns the occupancy of the write and read queues.
func (d *CREEC) QueueDepths() (write, read uint32, err error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	return uint32(d.writeQ.size()), uint32(d.readQ.size()), nil
}
