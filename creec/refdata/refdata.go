// Package refdata loads the reference vectors used to check CREEC transfers.
package refdata

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
)

//go:embed vectors.toml
var builtin []byte

// A Vector pairs a plaintext payload with the bytes and stage report the
// write path unit produces for it.
type Vector struct {
	Name    string
	Payload []byte
	Encoded []byte
	Header  creec.Header
}

type vectorFile struct {
	Vector []struct {
		Name    string       `toml:"name"`
		Payload []int        `toml:"payload"`
		Encoded []int        `toml:"encoded"`
		Header  creec.Header `toml:"header"`
	} `toml:"vector"`
}

// Builtin returns the vectors compiled into the package.
func Builtin() ([]Vector, error) {
	return Parse(builtin)
}

// LoadFile reads vectors from a TOML file.
func LoadFile(path string) ([]Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes vectors from TOML. A zero header beat count is filled in
// from the length of the encoded bytes.
func Parse(data []byte) ([]Vector, error) {
	var f vectorFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("refdata: %w", err)
	}

	vectors := make([]Vector, 0, len(f.Vector))
	for _, raw := range f.Vector {
		v := Vector{Name: raw.Name, Header: raw.Header}

		var err error
		if v.Payload, err = toBytes(raw.Payload); err != nil {
			return nil, fmt.Errorf("refdata: vector %q payload: %w", raw.Name, err)
		}

		if v.Encoded, err = toBytes(raw.Encoded); err != nil {
			return nil, fmt.Errorf("refdata: vector %q encoded: %w", raw.Name, err)
		}

		if v.Header.BeatCount == 0 {
			v.Header.BeatCount = uint32(len(v.Encoded) / beat.BytesPerBeat)
		}

		vectors = append(vectors, v)
	}

	return vectors, nil
}

// Get returns the builtin vector with the given name.
func Get(name string) (Vector, error) {
	vectors, err := Builtin()
	if err != nil {
		return Vector{}, err
	}

	for _, v := range vectors {
		if v.Name == name {
			return v, nil
		}
	}

	return Vector{}, fmt.Errorf("refdata: no vector named %q", name)
}

// MustGet is Get that panics on error.
func MustGet(name string) Vector {
	v, err := Get(name)
	if err != nil {
		panic(err)
	}

	return v
}

// Basic returns the 48-byte reference payload and its 64-byte encoding.
func Basic() Vector {
	return MustGet("creec-basic")
}

func toBytes(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		switch {
		case v >= 0 && v <= 0xff:
			out[i] = byte(v)
		case v >= -128 && v < 0:
			out[i] = byte(int8(v))
		default:
			return nil, fmt.Errorf("value %d at %d is not a byte", v, i)
		}
	}

	return out, nil
}
