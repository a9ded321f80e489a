package fixedpoint

import "fmt"

// A Lane is one value to be packed into an operand word.
type Lane struct {
	Value float64
	Format
}

// PackOperand packs lanes most-significant first and places the flag bit
// directly above the last lane. The caller is responsible for making sure the
// lanes plus the flag fit in 64 bits; use a Layout to have that checked.
func PackOperand(lanes []Lane, flag bool) uint64 {
	var packed uint64

	offset := uint(0)
	for i := len(lanes) - 1; i >= 0; i-- {
		packed |= Encode(lanes[i].Value, lanes[i].Format) << offset
		offset += uint(lanes[i].Width)
	}

	if flag && offset < MaxWidth {
		packed |= uint64(1) << offset
	}

	return packed
}

// UnpackOperand splits raw into fields of the given widths, most significant
// first, and sign-extends each one.
func UnpackOperand(raw uint64, widths []uint8) []int64 {
	out := make([]int64, len(widths))

	offset := uint(0)
	for i := len(widths) - 1; i >= 0; i-- {
		out[i] = Decode(raw>>offset, widths[i])
		offset += uint(widths[i])
	}

	return out
}

// A Field is a named lane of a Layout.
type Field struct {
	Name string
	Format
}

// A Layout is a validated, ordered set of fields packed into one word below
// a single flag bit: [flag][field0][field1]...[fieldN].
type Layout struct {
	fields []Field
	widths []uint8
	bits   uint
}

// NewLayout validates the fields and returns a layout. The sum of all widths
// plus the flag bit must not exceed 64.
func NewLayout(fields ...Field) (Layout, error) {
	if len(fields) == 0 {
		return Layout{}, ErrEmptyLayout
	}

	l := Layout{
		fields: make([]Field, len(fields)),
		widths: make([]uint8, len(fields)),
	}
	seen := make(map[string]bool)

	for i, f := range fields {
		if err := f.Validate(); err != nil {
			return Layout{}, fmt.Errorf("field %q: %w", f.Name, err)
		}

		if f.Name != "" {
			if seen[f.Name] {
				return Layout{}, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
			}
			seen[f.Name] = true
		}

		l.fields[i] = f
		l.widths[i] = f.Width
		l.bits += uint(f.Width)
	}

	if l.bits+1 > MaxWidth {
		return Layout{}, fmt.Errorf("%w: %d field bits plus flag",
			ErrLayoutTooWide, l.bits)
	}

	return l, nil
}

// MustNewLayout is NewLayout that panics on error. It is meant for layouts
// fixed at compile time.
func MustNewLayout(fields ...Field) Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}

	return l
}

// Fields returns a copy of the layout fields.
func (l Layout) Fields() []Field {
	return append([]Field(nil), l.fields...)
}

// Bits returns the number of bits used, including the flag.
func (l Layout) Bits() uint {
	return l.bits + 1
}

// FlagBit returns the bit position of the flag.
func (l Layout) FlagBit() uint {
	return l.bits
}

// Offset returns the bit offset of the i-th field.
func (l Layout) Offset(i int) uint {
	offset := uint(0)
	for j := len(l.widths) - 1; j > i; j-- {
		offset += uint(l.widths[j])
	}

	return offset
}

// Pack encodes values in field order and sets the flag bit. Values that do
// not fit their field wrap.
func (l Layout) Pack(values []float64, flag bool) (uint64, error) {
	lanes, err := l.lanes(values)
	if err != nil {
		return 0, err
	}

	return PackOperand(lanes, flag), nil
}

// PackChecked is Pack with overflow detection on every field.
func (l Layout) PackChecked(values []float64, flag bool) (uint64, error) {
	if len(values) != len(l.fields) {
		return 0, fmt.Errorf("%w: got %d, want %d",
			ErrValueCount, len(values), len(l.fields))
	}

	for i, v := range values {
		if _, err := EncodeChecked(v, l.fields[i].Format); err != nil {
			return 0, fmt.Errorf("field %q: %w", l.fields[i].Name, err)
		}
	}

	return l.Pack(values, flag)
}

// Unpack returns the sign-extended scaled integers of each field and the
// flag bit.
func (l Layout) Unpack(raw uint64) ([]int64, bool) {
	return UnpackOperand(raw, l.widths), raw>>l.bits&1 == 1
}

// UnpackFloat is Unpack followed by scaling each field by its format.
func (l Layout) UnpackFloat(raw uint64) ([]float64, bool) {
	ints, flag := l.Unpack(raw)

	out := make([]float64, len(ints))
	for i, v := range ints {
		out[i] = l.fields[i].Float(v)
	}

	return out, flag
}

func (l Layout) lanes(values []float64) ([]Lane, error) {
	if len(values) != len(l.fields) {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrValueCount, len(values), len(l.fields))
	}

	lanes := make([]Lane, len(values))
	for i, v := range values {
		lanes[i] = Lane{Value: v, Format: l.fields[i].Format}
	}

	return lanes, nil
}
