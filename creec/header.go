package creec

import (
	"fmt"

	"github.com/sarchlab/mmiodrv/mmio"
)

// NumFields is the number of fields in a Header.
const NumFields = 7

// A Header describes one CREEC transfer: how many beats it carries, which
// stages were applied and how many pad bytes each stage added. Values are
// passed through without interpretation.
type Header struct {
	BeatCount          uint32 `toml:"beat_count"`
	Compressed         uint32 `toml:"compressed"`
	Encrypted          uint32 `toml:"encrypted"`
	ECC                uint32 `toml:"ecc"`
	CompressedPadBytes uint32 `toml:"compressed_pad_bytes"`
	EncryptedPadBytes  uint32 `toml:"encrypted_pad_bytes"`
	ECCPadBytes        uint32 `toml:"ecc_pad_bytes"`
}

// Fields returns the header fields in register order.
func (h Header) Fields() [NumFields]uint32 {
	return [NumFields]uint32{
		h.BeatCount,
		h.Compressed,
		h.Encrypted,
		h.ECC,
		h.CompressedPadBytes,
		h.EncryptedPadBytes,
		h.ECCPadBytes,
	}
}

// HeaderFromFields builds a header from fields in register order.
func HeaderFromFields(f [NumFields]uint32) Header {
	return Header{
		BeatCount:          f[0],
		Compressed:         f[1],
		Encrypted:          f[2],
		ECC:                f[3],
		CompressedPadBytes: f[4],
		EncryptedPadBytes:  f[5],
		ECCPadBytes:        f[6],
	}
}

// Stages returns the stage flags and pad counts with the beat count cleared.
// A decode transfer takes these from the encode transfer's report.
func (h Header) Stages() Header {
	h.BeatCount = 0
	return h
}

func (h Header) String() string {
	return fmt.Sprintf("%d %d %d %d %d %d %d",
		h.BeatCount, h.Compressed, h.Encrypted, h.ECC,
		h.CompressedPadBytes, h.EncryptedPadBytes, h.ECCPadBytes)
}

// WriteHeader writes the seven input fields of the block at base.
func WriteHeader(t mmio.Transport, base uint64, h Header) error {
	for i, v := range h.Fields() {
		if err := t.Write32(base+InOffsets[i], v); err != nil {
			return fmt.Errorf("creec: write header field %d: %w", i, err)
		}
	}

	return nil
}

// ReadHeader reads the seven output fields of the block at base.
func ReadHeader(t mmio.Transport, base uint64) (Header, error) {
	var f [NumFields]uint32

	for i := range f {
		v, err := t.Read32(base + OutOffsets[i])
		if err != nil {
			return Header{}, fmt.Errorf("creec: read header field %d: %w", i, err)
		}

		f[i] = v
	}

	return HeaderFromFields(f), nil
}
