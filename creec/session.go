package creec

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/mmio"
)

// Progress is advanced as beats move through a session.
type Progress interface {
	IncrementFinished(amount uint64)
}

// A Transfer is what one completed session sent and received.
type Transfer struct {
	Sent         Header
	Received     Header
	Beats        []uint64
	Payload      []byte
	PollAttempts int
	Elapsed      time.Duration
}

// receiveChunk bounds the beat buffer allocated before the first queue read.
const receiveChunk = 4096

// A Session drives one direction of one transfer. It is not safe for
// concurrent use and is discarded once the transfer has been validated.
type Session struct {
	name      string
	transport mmio.Transport
	regs      RegisterMap
	framer    *beat.Framer
	poll      mmio.PollPolicy
	log       zerolog.Logger
	progress  Progress
	maxBeats  uint32

	state    State
	ready    bool
	start    time.Time
	sent     Header
	attempts int
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// State returns the current protocol state.
func (s *Session) State() State {
	return s.state
}

// RegisterMap returns the register layout the session drives.
func (s *Session) RegisterMap() RegisterMap {
	return s.regs
}

// Framer returns the beat framer.
func (s *Session) Framer() *beat.Framer {
	return s.framer
}

func (s *Session) expect(op string, want State) error {
	if s.state != want {
		return &StateError{Op: op, Have: s.state, Want: want}
	}

	return nil
}

func (s *Session) fail(op string, err error) error {
	s.state = Failed
	s.log.Error().Err(err).Str("op", op).Msg("transfer failed")

	return fmt.Errorf("creec %s: %s: %w", s.name, op, err)
}

func (s *Session) advance(n int) {
	if s.progress != nil && n > 0 {
		s.progress.IncrementFinished(uint64(n))
	}
}

// SendHeader writes the input header. For a decode transfer h must carry the
// stage flags and pad byte counts reported by the matching encode transfer.
func (s *Session) SendHeader(h Header) error {
	if err := s.expect("send header", Idle); err != nil {
		return err
	}

	s.start = time.Now()

	if err := WriteHeader(s.transport, s.regs.Base, h); err != nil {
		return s.fail("send header", err)
	}

	s.sent = h
	s.state = HeaderSent
	s.log.Debug().Stringer("header", h).Msg("header sent")

	return nil
}

// SendPayload streams the payload into the write queue, one beat per write.
// The payload must fill exactly the number of beats announced in the header.
func (s *Session) SendPayload(payload []byte) error {
	if err := s.expect("send payload", HeaderSent); err != nil {
		return err
	}

	beats, err := s.framer.ToBeats(payload)
	if err != nil {
		return err
	}

	if uint32(len(beats)) != s.sent.BeatCount {
		return fmt.Errorf("%w: %d beats, header announces %d",
			ErrBeatCountMismatch, len(beats), s.sent.BeatCount)
	}

	for i, b := range beats {
		if err := s.transport.Write64(s.regs.WriteQueue, b); err != nil {
			return s.fail(fmt.Sprintf("send beat %d", i), err)
		}
	}

	s.advance(len(beats))
	s.state = PayloadSent
	s.log.Debug().Int("beats", len(beats)).Msg("payload sent")

	return nil
}

// Enable starts processing.
func (s *Session) Enable() error {
	if err := s.expect("enable", PayloadSent); err != nil {
		return err
	}

	if err := s.transport.Write32(s.regs.Enable(), 1); err != nil {
		return s.fail("enable", err)
	}

	s.state = Enabled

	return nil
}

// Wait polls the output beat count until it becomes non-zero. It gives up
// with an error matching mmio.ErrTimeout when the poll policy is exceeded.
func (s *Session) Wait(ctx context.Context) error {
	if err := s.expect("wait", Enabled); err != nil {
		return err
	}

	s.state = Polling

	attempts, err := mmio.Poll(ctx, s.poll, func() (bool, error) {
		n, err := s.transport.Read32(s.regs.OutBeatCount())
		return n != 0, err
	})
	s.attempts = attempts

	if err != nil {
		return s.fail("wait for completion", err)
	}

	s.ready = true
	s.log.Debug().Int("attempts", attempts).Msg("output ready")

	return nil
}

// Receive reads the result header and as many beats as it announces.
func (s *Session) Receive() (Transfer, error) {
	if err := s.expect("receive", Polling); err != nil {
		return Transfer{}, err
	}

	if !s.ready {
		return Transfer{}, ErrNotReady
	}

	h, err := ReadHeader(s.transport, s.regs.Base)
	if err != nil {
		return Transfer{}, s.fail("receive header", err)
	}

	if h.BeatCount > s.maxBeats {
		return Transfer{}, s.fail("receive header",
			fmt.Errorf("%w: %d > %d", ErrTooManyBeats, h.BeatCount, s.maxBeats))
	}

	beats := make([]uint64, 0, min(h.BeatCount, receiveChunk))
	for i := uint32(0); i < h.BeatCount; i++ {
		b, err := s.transport.Read64(s.regs.ReadQueue)
		if err != nil {
			return Transfer{}, s.fail(fmt.Sprintf("receive beat %d", i), err)
		}

		beats = append(beats, b)
	}

	s.advance(len(beats))
	s.state = Completed

	t := Transfer{
		Sent:         s.sent,
		Received:     h,
		Beats:        beats,
		Payload:      s.framer.FromBeats(beats),
		PollAttempts: s.attempts,
		Elapsed:      time.Since(s.start),
	}

	s.log.Info().
		Stringer("header", h).
		Int("beats", len(beats)).
		Int("poll_attempts", s.attempts).
		Dur("elapsed", t.Elapsed).
		Msg("transfer complete")

	return t, nil
}

// Run performs a whole transfer. A zero h.BeatCount is filled in from the
// payload length.
func (s *Session) Run(ctx context.Context, h Header, payload []byte) (Transfer, error) {
	if err := s.framer.CheckShape(len(payload)); err != nil {
		return Transfer{}, err
	}

	if h.BeatCount == 0 {
		h.BeatCount = uint32(s.framer.BeatCount(len(payload)))
	}

	if err := s.SendHeader(h); err != nil {
		return Transfer{}, err
	}

	if err := s.SendPayload(payload); err != nil {
		return Transfer{}, err
	}

	if err := s.Enable(); err != nil {
		return Transfer{}, err
	}

	if err := s.Wait(ctx); err != nil {
		return Transfer{}, err
	}

	return s.Receive()
}

// QueueDepths reads the write and read queue occupancy registers.
func (s *Session) QueueDepths() (write, read uint32, err error) {
	write, err = s.transport.Read32(s.regs.WriteCount)
	if err != nil {
		return 0, 0, fmt.Errorf("creec %s: read write count: %w", s.name, err)
	}

	read, err = s.transport.Read32(s.regs.ReadCount)
	if err != nil {
		return 0, 0, fmt.Errorf("creec %s: read read count: %w", s.name, err)
	}

	return write, read, nil
}
