package mmio

import (
	"encoding/binary"
	"sync"
)

// A RegisterFile is a sparse byte-addressed register space. Pages are
// allocated on first touch, so a large address range costs nothing until it
// is used. Values are stored little-endian.
type RegisterFile struct {
	lock     sync.Mutex
	pageSize uint64
	capacity uint64
	pages    map[uint64][]byte
}

// NewRegisterFile creates a register file covering [0, capacity).
func NewRegisterFile(capacity uint64) *RegisterFile {
	return &RegisterFile{
		pageSize: 4096,
		capacity: capacity,
		pages:    make(map[uint64][]byte),
	}
}

// Capacity returns the size of the register space in bytes.
func (r *RegisterFile) Capacity() uint64 {
	return r.capacity
}

func (r *RegisterFile) page(addr uint64) []byte {
	base := addr - addr%r.pageSize

	p, ok := r.pages[base]
	if !ok {
		p = make([]byte, r.pageSize)
		r.pages[base] = p
	}

	return p
}

// ReadBytes copies n bytes starting at addr.
func (r *RegisterFile) ReadBytes(addr uint64, n uint64) ([]byte, error) {
	if addr+n > r.capacity || addr+n < addr {
		return nil, ErrOutOfRange
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	res := make([]byte, n)
	done := uint64(0)

	for done < n {
		curr := addr + done
		p := r.page(curr)
		inPage := curr % r.pageSize

		chunk := r.pageSize - inPage
		if n-done < chunk {
			chunk = n - done
		}

		copy(res[done:done+chunk], p[inPage:inPage+chunk])
		done += chunk
	}

	return res, nil
}

// WriteBytes stores data starting at addr.
func (r *RegisterFile) WriteBytes(addr uint64, data []byte) error {
	n := uint64(len(data))
	if addr+n > r.capacity || addr+n < addr {
		return ErrOutOfRange
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	done := uint64(0)
	for done < n {
		curr := addr + done
		p := r.page(curr)
		inPage := curr % r.pageSize

		chunk := r.pageSize - inPage
		if n-done < chunk {
			chunk = n - done
		}

		copy(p[inPage:inPage+chunk], data[done:done+chunk])
		done += chunk
	}

	return nil
}

// Read32 reads a 32-bit register.
func (r *RegisterFile) Read32(addr uint64) (uint32, error) {
	b, err := r.ReadBytes(addr, 4)
	if err != nil {
		return 0, &AccessError{Access{Read, addr, 32, 0}, err}
	}

	return binary.LittleEndian.Uint32(b), nil
}

// Read64 reads a 64-bit register.
func (r *RegisterFile) Read64(addr uint64) (uint64, error) {
	b, err := r.ReadBytes(addr, 8)
	if err != nil {
		return 0, &AccessError{Access{Read, addr, 64, 0}, err}
	}

	return binary.LittleEndian.Uint64(b), nil
}

// Write32 writes a 32-bit register.
func (r *RegisterFile) Write32(addr uint64, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)

	if err := r.WriteBytes(addr, b[:]); err != nil {
		return &AccessError{Access{Write, addr, 32, uint64(value)}, err}
	}

	return nil
}

// Write64 writes a 64-bit register.
func (r *RegisterFile) Write64(addr uint64, value uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)

	if err := r.WriteBytes(addr, b[:]); err != nil {
		return &AccessError{Access{Write, addr, 64, value}, err}
	}

	return nil
}
