package fixedpoint

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidWidth   = errors.New("fixedpoint: invalid field width")
	ErrLayoutTooWide  = errors.New("fixedpoint: layout does not fit in one word")
	ErrValueCount     = errors.New("fixedpoint: value count does not match layout")
	ErrEmptyLayout    = errors.New("fixedpoint: layout has no fields")
	ErrDuplicateField = errors.New("fixedpoint: duplicate field name")
)

// An OverflowError reports a value whose magnitude cannot be represented by
// a fixed-point format.
type OverflowError struct {
	Value  float64
	Format Format
	Scaled int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf(
		"fixedpoint: %g overflows %d-bit field with %d fractional bits",
		e.Value, e.Format.Width, e.Format.Frac)
}
