package devsim

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/cordic"
	"github.com/sarchlab/mmiodrv/mmio"
)

var _ = Describe("CORDIC", func() {
	var (
		regs   cordic.RegisterMap
		codec  *cordic.Codec
		device *CORDIC
	)

	BeforeEach(func() {
		regs = cordic.DefaultRegisterMap()
		device = MakeCORDICBuilder().Build("cordic")

		var err error
		codec, err = cordic.NewCodec(cordic.DefaultConfig())
		Expect(err).ToNot(HaveOccurred())
	})

	It("should rotate", func() {
		out := Rotate(1, 0, math.Pi/2)

		Expect(out.X).To(BeNumerically("~", 0, 1e-9))
		Expect(out.Y).To(BeNumerically("~", 1, 1e-9))
		Expect(out.Z).To(BeZero())
	})

	It("should vector", func() {
		out := Vectoring(1, 1, 0)

		Expect(out.X).To(BeNumerically("~", math.Sqrt2, 1e-9))
		Expect(out.Y).To(BeZero())
		Expect(out.Z).To(BeNumerically("~", math.Pi/4, 1e-9))
		Expect(out.Vectoring).To(BeTrue())
	})

	It("should produce one result per operand", func() {
		Expect(device.Write64(regs.WriteQueue,
			codec.Pack(cordic.Operand{X: 1, Z: 0.5}))).To(Succeed())

		n, err := device.Read32(regs.ReadCount)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(uint32(1)))

		raw, err := device.Read64(regs.ReadQueue)
		Expect(err).ToNot(HaveOccurred())

		x, y, z := codec.Unpack(raw).Float(codec.Config())
		Expect(x).To(BeNumerically("~", math.Cos(0.5), 1.0/64))
		Expect(y).To(BeNumerically("~", math.Sin(0.5), 1.0/64))
		Expect(z).To(BeZero())
	})

	It("should delay results by the latency", func() {
		device.Latency = 1
		Expect(device.Write64(regs.WriteQueue, 0)).To(Succeed())

		n, _ := device.Read32(regs.ReadCount)
		Expect(n).To(BeZero())
		n, _ = device.Read32(regs.ReadCount)
		Expect(n).To(Equal(uint32(1)))
	})

	It("should reject unmapped addresses", func() {
		_, err := device.Read64(0x3000)
		Expect(err).To(MatchError(mmio.ErrOutOfRange))

		Expect(device.Write32(regs.WriteQueue, 0)).To(MatchError(mmio.ErrOutOfRange))
	})
})
