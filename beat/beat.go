// Package beat splits byte payloads into the 64-bit beats carried by a
// hardware queue register and joins them back together.
package beat

import (
	"errors"
	"fmt"
)

const (
	// BytesPerBeat is the number of payload bytes carried by one beat.
	BytesPerBeat = 8

	// ByteWidth is the width of one payload byte in bits.
	ByteWidth = 8

	// BeatWidth is the width of one beat in bits.
	BeatWidth = BytesPerBeat * ByteWidth
)

// ErrInvalidBeatSize is returned when a framer is asked to carry more bytes
// than a beat can hold.
var ErrInvalidBeatSize = errors.New("beat: bytes per beat must be in 1..8")

// A ShapeError reports a payload whose length is not a whole number of beats.
type ShapeError struct {
	Length       int
	BytesPerBeat int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("beat: payload length %d is not a multiple of %d",
		e.Length, e.BytesPerBeat)
}

// Order selects how the bytes of a group are arranged inside a beat.
type Order int

const (
	// ShiftIn assembles a beat by shifting the accumulator down one byte and
	// inserting each new byte at the top, which leaves byte 0 in the least
	// significant position. Unpacking extracts the low byte first. This is
	// the order used by the hardware test harness.
	ShiftIn Order = iota

	// MSBFirst places byte 0 in the most significant position. Unpacking
	// extracts the high byte first.
	MSBFirst
)

func (o Order) String() string {
	switch o {
	case ShiftIn:
		return "shift-in"
	case MSBFirst:
		return "msb-first"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder converts the name returned by Order.String back to an Order.
func ParseOrder(name string) (Order, error) {
	switch name {
	case "", "shift-in":
		return ShiftIn, nil
	case "msb-first":
		return MSBFirst, nil
	default:
		return 0, fmt.Errorf("beat: unknown byte order %q", name)
	}
}

// A Framer converts between payload bytes and beats.
type Framer struct {
	order        Order
	bytesPerBeat int
}

// NewFramer creates a framer carrying bytesPerBeat bytes per beat.
func NewFramer(order Order, bytesPerBeat int) (*Framer, error) {
	if bytesPerBeat < 1 || bytesPerBeat > BytesPerBeat {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBeatSize, bytesPerBeat)
	}

	if order != ShiftIn && order != MSBFirst {
		return nil, fmt.Errorf("beat: unknown byte order %d", int(order))
	}

	return &Framer{order: order, bytesPerBeat: bytesPerBeat}, nil
}

// DefaultFramer returns a full-width ShiftIn framer.
func DefaultFramer() *Framer {
	return &Framer{order: ShiftIn, bytesPerBeat: BytesPerBeat}
}

// Order returns the byte order of the framer.
func (f *Framer) Order() Order {
	return f.order
}

// BytesPerBeat returns the number of bytes carried by each beat.
func (f *Framer) BytesPerBeat() int {
	return f.bytesPerBeat
}

// BeatCount returns the number of beats needed to carry n bytes.
func (f *Framer) BeatCount(n int) int {
	return (n + f.bytesPerBeat - 1) / f.bytesPerBeat
}

// CheckShape reports whether a payload of n bytes can be framed.
func (f *Framer) CheckShape(n int) error {
	if n%f.bytesPerBeat != 0 {
		return &ShapeError{Length: n, BytesPerBeat: f.bytesPerBeat}
	}

	return nil
}

// ToBeats packs the payload into beats. The payload length must be a
// multiple of the beat size; this is checked before any beat is built.
func (f *Framer) ToBeats(payload []byte) ([]uint64, error) {
	if err := f.CheckShape(len(payload)); err != nil {
		return nil, err
	}

	beats := make([]uint64, 0, f.BeatCount(len(payload)))
	for i := 0; i < len(payload); i += f.bytesPerBeat {
		beats = append(beats, f.Pack(payload[i:i+f.bytesPerBeat]))
	}

	return beats, nil
}

// FromBeats unpacks every beat and concatenates the bytes.
func (f *Framer) FromBeats(beats []uint64) []byte {
	out := make([]byte, 0, len(beats)*f.bytesPerBeat)
	for _, b := range beats {
		out = f.appendBeat(out, b)
	}

	return out
}

// Pack builds one beat from up to BytesPerBeat bytes of group.
func (f *Framer) Pack(group []byte) uint64 {
	var acc uint64

	top := uint(f.bytesPerBeat-1) * ByteWidth

	switch f.order {
	case MSBFirst:
		for i := 0; i < f.bytesPerBeat && i < len(group); i++ {
			acc |= uint64(group[i]) << (top - uint(i)*ByteWidth)
		}
	default:
		for i := 0; i < f.bytesPerBeat; i++ {
			var b byte
			if i < len(group) {
				b = group[i]
			}
			acc = acc>>ByteWidth | uint64(b)<<top
		}
	}

	return acc
}

// Unpack splits one beat into its bytes.
func (f *Framer) Unpack(b uint64) []byte {
	return f.appendBeat(make([]byte, 0, f.bytesPerBeat), b)
}

func (f *Framer) appendBeat(out []byte, b uint64) []byte {
	switch f.order {
	case MSBFirst:
		top := uint(f.bytesPerBeat-1) * ByteWidth
		for i := 0; i < f.bytesPerBeat; i++ {
			out = append(out, byte(b>>(top-uint(i)*ByteWidth)))
		}
	default:
		for i := 0; i < f.bytesPerBeat; i++ {
			out = append(out, byte(b&0xFF))
			b >>= ByteWidth
		}
	}

	return out
}
