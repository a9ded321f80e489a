package creec

import "context"

// A NoisePattern corrupts Count bytes at the start of every Stride bytes,
// overwriting them with 0, 1, 2, ... It models channel noise between the
// encode and decode directions.
type NoisePattern struct {
	Stride int `toml:"stride"`
	Count  int `toml:"count"`
}

// Apply returns a corrupted copy of data.
func (p NoisePattern) Apply(data []byte) []byte {
	out := append([]byte(nil), data...)
	if p.Stride <= 0 || p.Count <= 0 {
		return out
	}

	for base := 0; base < len(out); base += p.Stride {
		for i := 0; i < p.Count && base+i < len(out); i++ {
			out[base+i] = byte(i)
		}
	}

	return out
}

// A RoundTripReport holds both directions of a round trip.
type RoundTripReport struct {
	EncodeTransfer Transfer
	DecodeTransfer Transfer
	Encode         Result
	Decode         Result
}

// Passed reports whether both directions matched their references.
func (r RoundTripReport) Passed() bool {
	return r.Encode.Passed() && r.Decode.Passed()
}

type roundTripOptions struct {
	noise   NoisePattern
	offsets bool
}

// A RoundTripOption customizes RoundTrip.
type RoundTripOption func(*roundTripOptions)

// WithNoise corrupts the encoded bytes before they are decoded.
func WithNoise(p NoisePattern) RoundTripOption {
	return func(o *roundTripOptions) { o.noise = p }
}

// WithOffsets records mismatching offsets in the results.
func WithOffsets() RoundTripOption {
	return func(o *roundTripOptions) { o.offsets = true }
}

// RoundTrip encodes payload with enc and checks the output against golden,
// then decodes the encoder's output with dec, passing the stage flags and
// pad byte counts reported by enc, and checks the result against payload.
func RoundTrip(
	ctx context.Context,
	enc, dec *Session,
	payload, golden []byte,
	opts ...RoundTripOption,
) (RoundTripReport, error) {
	var o roundTripOptions
	for _, opt := range opts {
		opt(&o)
	}

	var report RoundTripReport

	encoded, err := enc.Run(ctx, Header{}, payload)
	if err != nil {
		return report, err
	}

	report.EncodeTransfer = encoded
	report.Encode = Compare(enc.Name(), encoded.Payload, golden, o.offsets)

	decodeIn := o.noise.Apply(encoded.Payload)
	decoded, err := dec.Run(ctx, encoded.Received.Stages(), decodeIn)
	if err != nil {
		return report, err
	}

	report.DecodeTransfer = decoded
	report.Decode = Compare(dec.Name(), decoded.Payload, payload, o.offsets)

	return report, nil
}
