// Package fixedpoint converts between floating-point values and the
// two's-complement fixed-point fields used by hardware operand registers.
package fixedpoint

import (
	"fmt"
	"math"
)

// MaxWidth is the widest field that fits in a single register word.
const MaxWidth = 64

// A Format describes a signed fixed-point field. Width is the total number of
// bits in the field and Frac is the number of bits after the binary point.
type Format struct {
	Width uint8
	Frac  uint8
}

// Validate checks that the format fits in one 64-bit word.
func (f Format) Validate() error {
	if f.Width == 0 || f.Width > MaxWidth {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, f.Width)
	}

	if f.Frac >= MaxWidth {
		return fmt.Errorf("%w: %d fractional bits", ErrInvalidWidth, f.Frac)
	}

	return nil
}

// Mask returns a mask covering the low width bits.
func Mask(width uint8) uint64 {
	if width >= MaxWidth {
		return math.MaxUint64
	}

	return (uint64(1) << width) - 1
}

// Scale returns 2^Frac.
func (f Format) Scale() float64 {
	return math.Ldexp(1, int(f.Frac))
}

// Float converts a decoded, sign-extended field back to a floating-point
// value.
func (f Format) Float(i int64) float64 {
	return float64(i) / f.Scale()
}

// Min returns the smallest scaled integer the format can hold.
func (f Format) Min() int64 {
	if f.Width >= MaxWidth {
		return math.MinInt64
	}

	return -(int64(1) << (f.Width - 1))
}

// Max returns the largest scaled integer the format can hold.
func (f Format) Max() int64 {
	if f.Width >= MaxWidth {
		return math.MaxInt64
	}

	return (int64(1) << (f.Width - 1)) - 1
}

// Encode scales v by 2^Frac, truncates toward zero and keeps the low Width
// bits. Values that do not fit wrap around, as the hardware format does.
func Encode(v float64, f Format) uint64 {
	return uint64(scale(v, f)) & Mask(f.Width)
}

// EncodeChecked behaves like Encode but reports values whose scaled integer
// falls outside the signed range of the format.
func EncodeChecked(v float64, f Format) (uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &OverflowError{Value: v, Format: f}
	}

	scaled := v * f.Scale()
	if scaled >= math.Ldexp(1, MaxWidth-1) || scaled < -math.Ldexp(1, MaxWidth-1) {
		return 0, &OverflowError{Value: v, Format: f}
	}

	i := int64(scaled)
	if i < f.Min() || i > f.Max() {
		return 0, &OverflowError{Value: v, Format: f, Scaled: i}
	}

	return uint64(i) & Mask(f.Width), nil
}

// Decode extracts the low width bits of raw and sign-extends them. The result
// is still scaled by 2^Frac; use Format.Float to recover the real value.
func Decode(raw uint64, width uint8) int64 {
	if width == 0 {
		return 0
	}

	if width > MaxWidth {
		width = MaxWidth
	}

	shift := MaxWidth - width

	return int64((raw&Mask(width))<<shift) >> shift
}

func scale(v float64, f Format) int64 {
	return int64(v * f.Scale())
}
