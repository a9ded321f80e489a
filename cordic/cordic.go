// Package cordic packs operands for, and drives, a CORDIC fixed-point
// rotation unit. An operand word is laid out as [vectoring][x][y][z], where x
// and y share one fixed-point format and z (the angle) uses another.
package cordic

import (
	"github.com/sarchlab/mmiodrv/fixedpoint"
)

// Config gives the fixed-point formats of the unit. It must match the
// parameters the hardware was generated with.
type Config struct {
	XYWidth uint8 `toml:"xy_width"`
	XYFrac  uint8 `toml:"xy_frac"`
	ZWidth  uint8 `toml:"z_width"`
	ZFrac   uint8 `toml:"z_frac"`
}

// DefaultConfig returns 8-bit x and y and a 10-bit angle, each with two
// integer bits.
func DefaultConfig() Config {
	return Config{XYWidth: 8, XYFrac: 6, ZWidth: 10, ZFrac: 8}
}

// XY returns the format of the x and y lanes.
func (c Config) XY() fixedpoint.Format {
	return fixedpoint.Format{Width: c.XYWidth, Frac: c.XYFrac}
}

// Z returns the format of the angle lane.
func (c Config) Z() fixedpoint.Format {
	return fixedpoint.Format{Width: c.ZWidth, Frac: c.ZFrac}
}

// Layout builds and validates the operand layout.
func (c Config) Layout() (fixedpoint.Layout, error) {
	return fixedpoint.NewLayout(
		fixedpoint.Field{Name: "x", Format: c.XY()},
		fixedpoint.Field{Name: "y", Format: c.XY()},
		fixedpoint.Field{Name: "z", Format: c.Z()},
	)
}

// An Operand is one request to the unit. In rotation mode (x, y) is rotated
// by z; in vectoring mode (x, y) is rotated onto the x axis and the angle is
// accumulated into z.
type Operand struct {
	X, Y, Z   float64
	Vectoring bool
}

// An Output holds the sign-extended, still scaled result lanes.
type Output struct {
	X, Y, Z   int64
	Vectoring bool
}

// Float scales the output lanes back to real values.
func (o Output) Float(c Config) (x, y, z float64) {
	return c.XY().Float(o.X), c.XY().Float(o.Y), c.Z().Float(o.Z)
}

// A Codec converts operands to and from packed words.
type Codec struct {
	cfg    Config
	layout fixedpoint.Layout
}

// NewCodec validates cfg and returns a codec for it.
func NewCodec(cfg Config) (*Codec, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}

	return &Codec{cfg: cfg, layout: layout}, nil
}

// Config returns the formats the codec was built with.
func (c *Codec) Config() Config {
	return c.cfg
}

// Layout returns the validated operand layout.
func (c *Codec) Layout() fixedpoint.Layout {
	return c.layout
}

// Pack encodes an operand. Lanes that do not fit wrap around.
func (c *Codec) Pack(op Operand) uint64 {
	raw, _ := c.layout.Pack([]float64{op.X, op.Y, op.Z}, op.Vectoring)
	return raw
}

// PackChecked encodes an operand and reports lanes that overflow.
func (c *Codec) PackChecked(op Operand) (uint64, error) {
	return c.layout.PackChecked([]float64{op.X, op.Y, op.Z}, op.Vectoring)
}

// Unpack decodes a packed word.
func (c *Codec) Unpack(raw uint64) Output {
	v, flag := c.layout.Unpack(raw)
	return Output{X: v[0], Y: v[1], Z: v[2], Vectoring: flag}
}
