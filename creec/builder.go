package creec

import (
	"log"

	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/mmio"
)

// A Builder creates Sessions.
type Builder struct {
	transport mmio.Transport
	regs      RegisterMap
	framer    *beat.Framer
	poll      mmio.PollPolicy
	log       zerolog.Logger
	progress  Progress
	maxBeats  uint32
}

// MakeBuilder returns a Builder for the write path unit with a bounded poll.
func MakeBuilder() Builder {
	return Builder{
		regs:   DefaultWriteMap(),
		framer: beat.DefaultFramer(),
		poll:   mmio.DefaultPollPolicy(),
		log:    zerolog.Nop(),

		maxBeats: DefaultMaxBeats,
	}
}

// WithTransport sets the register transport.
func (b Builder) WithTransport(t mmio.Transport) Builder {
	b.transport = t
	return b
}

// WithRegisterMap sets the register layout of the unit.
func (b Builder) WithRegisterMap(m RegisterMap) Builder {
	b.regs = m
	return b
}

// WithFramer sets the beat framer.
func (b Builder) WithFramer(f *beat.Framer) Builder {
	b.framer = f
	return b
}

// WithPollPolicy sets how the session waits for completion.
func (b Builder) WithPollPolicy(p mmio.PollPolicy) Builder {
	b.poll = p
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l zerolog.Logger) Builder {
	b.log = l
	return b
}

// WithProgress sets a tracker that is advanced once per beat moved.
func (b Builder) WithProgress(p Progress) Builder {
	b.progress = p
	return b
}

// WithMaxBeats bounds the output beat count a session accepts from the
// unit's header.
func (b Builder) WithMaxBeats(n uint32) Builder {
	b.maxBeats = n
	return b
}

// Build creates a Session. It panics if no transport is set or the register
// map is invalid.
func (b Builder) Build(name string) *Session {
	if b.transport == nil {
		log.Panicf("creec: session %s has no transport", name)
	}

	if err := b.regs.Validate(); err != nil {
		log.Panicf("creec: session %s: %v", name, err)
	}

	if b.maxBeats == 0 {
		log.Panicf("creec: session %s accepts no output beats", name)
	}

	framer := b.framer
	if framer == nil {
		framer = beat.DefaultFramer()
	}

	return &Session{
		name:      name,
		transport: b.transport,
		regs:      b.regs,
		framer:    framer,
		poll:      b.poll,
		log:       b.log.With().Str("session", name).Logger(),
		progress:  b.progress,
		maxBeats:  b.maxBeats,
	}
}
