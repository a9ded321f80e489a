package mmio_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/mmio"
)

var _ = Describe("RegisterFile", func() {
	var regs *mmio.RegisterFile

	BeforeEach(func() {
		regs = mmio.NewRegisterFile(0x10000)
	})

	It("should read zero from untouched registers", func() {
		v, err := regs.Read32(0x2404)
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("should read back 32-bit and 64-bit values", func() {
		Expect(regs.Write32(0x2404, 0xdeadbeef)).To(Succeed())
		Expect(regs.Write64(0x2000, 0x0807060504030201)).To(Succeed())

		v32, err := regs.Read32(0x2404)
		Expect(err).ToNot(HaveOccurred())
		Expect(v32).To(Equal(uint32(0xdeadbeef)))

		v64, err := regs.Read64(0x2000)
		Expect(err).ToNot(HaveOccurred())
		Expect(v64).To(Equal(uint64(0x0807060504030201)))
	})

	It("should store little-endian", func() {
		Expect(regs.Write32(0x10, 0x04030201)).To(Succeed())

		b, err := regs.ReadBytes(0x10, 4)
		Expect(err).ToNot(HaveOccurred())
		Expect(b).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read and write across pages", func() {
		Expect(regs.Write64(4092, 0x1122334455667788)).To(Succeed())

		v, err := regs.Read64(4092)
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(uint64(0x1122334455667788)))
	})

	It("should reject accesses beyond capacity", func() {
		err := regs.Write32(0x10000, 1)
		Expect(err).To(MatchError(mmio.ErrOutOfRange))

		_, err = regs.Read64(0xFFFC)
		Expect(err).To(MatchError(mmio.ErrOutOfRange))

		var accessErr *mmio.AccessError
		Expect(errors.As(err, &accessErr)).To(BeTrue())
		Expect(accessErr.Access.Addr).To(Equal(uint64(0xFFFC)))
		Expect(accessErr.Access.Width).To(Equal(64))
	})
})
