package devsim

import (
	"github.com/rs/zerolog"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
)

// A Board holds an encode and a decode unit at the default addresses,
// sharing one pipeline model and one bus.
type Board struct {
	*Bus
	Encoder *CREEC
	Decoder *CREEC
}

// NewBoard builds a two-unit board. The framer must match the one the
// driver uses.
func NewBoard(p Pipeline, f *beat.Framer, log zerolog.Logger) *Board {
	enc := MakeCREECBuilder().
		WithRegisterMap(creec.DefaultWriteMap()).
		WithDirection(Encode).
		WithPipeline(p).
		WithFramer(f).
		WithLogger(log).
		Build("encoder")
	dec := MakeCREECBuilder().
		WithRegisterMap(creec.DefaultReadMap()).
		WithDirection(Decode).
		WithPipeline(p).
		WithFramer(f).
		WithLogger(log).
		Build("decoder")

	return &Board{
		Bus:     NewBus(enc, dec),
		Encoder: enc,
		Decoder: dec,
	}
}
