package devsim

import (
	"bytes"

	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/creec/refdata"
)

// Direction selects which way a CREEC unit transforms data.
type Direction int

const (
	// Encode compresses, encrypts and adds ECC (the write path).
	Encode Direction = iota

	// Decode reverses Encode (the read path).
	Decode
)

func (d Direction) String() string {
	if d == Decode {
		return "decode"
	}

	return "encode"
}

// A Pipeline transforms a payload the way the unit's stages would. The
// returned header's BeatCount is ignored; the device fills it in.
type Pipeline interface {
	Process(dir Direction, in creec.Header, payload []byte) (creec.Header, []byte)
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(dir Direction, in creec.Header, payload []byte) (creec.Header, []byte)

// Process calls f.
func (f PipelineFunc) Process(
	dir Direction,
	in creec.Header,
	payload []byte,
) (creec.Header, []byte) {
	return f(dir, in, payload)
}

// Passthrough returns the payload unchanged with no stages applied.
var Passthrough = PipelineFunc(
	func(_ Direction, _ creec.Header, payload []byte) (creec.Header, []byte) {
		return creec.Header{}, append([]byte(nil), payload...)
	})

// A ReferencePipeline answers from a table of known vectors. Encoding a known
// payload yields its reference encoding and stage report. Decoding yields the
// original payload when the stage report matches and the input differs from
// a known encoding in at most CorrectableBytes bytes. Anything else passes
// through untouched with no stages reported.
type ReferencePipeline struct {
	Vectors          []refdata.Vector
	CorrectableBytes int
}

// NewReferencePipeline creates a pipeline over vectors that corrects up to
// 16 corrupted bytes.
func NewReferencePipeline(vectors []refdata.Vector) *ReferencePipeline {
	return &ReferencePipeline{Vectors: vectors, CorrectableBytes: 16}
}

// Process implements Pipeline.
func (p *ReferencePipeline) Process(
	dir Direction,
	in creec.Header,
	payload []byte,
) (creec.Header, []byte) {
	switch dir {
	case Encode:
		for _, v := range p.Vectors {
			if bytes.Equal(v.Payload, payload) {
				return v.Header, append([]byte(nil), v.Encoded...)
			}
		}
	case Decode:
		if v, ok := p.closest(in, payload); ok {
			return creec.Header{}, append([]byte(nil), v.Payload...)
		}
	}

	return Passthrough.Process(dir, in, payload)
}

func (p *ReferencePipeline) closest(
	in creec.Header,
	payload []byte,
) (refdata.Vector, bool) {
	best := -1
	bestDist := p.CorrectableBytes + 1

	for i, v := range p.Vectors {
		if len(v.Encoded) != len(payload) || v.Header.Stages() != in.Stages() {
			continue
		}

		d := distance(v.Encoded, payload)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return refdata.Vector{}, false
	}

	return p.Vectors[best], true
}

func distance(a, b []byte) int {
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}

	return d
}
