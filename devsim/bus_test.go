package devsim

import (
	"github.com/rs/zerolog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/mmio"
)

var _ = Describe("Bus", func() {
	It("should route accesses to the owning unit", func() {
		board := NewBoard(Passthrough, beat.DefaultFramer(), zerolog.Nop())

		Expect(board.Write64(creec.DefaultWriteMap().WriteQueue, 1)).To(Succeed())
		Expect(board.Write64(creec.DefaultReadMap().WriteQueue, 2)).To(Succeed())
		Expect(board.Write64(creec.DefaultReadMap().WriteQueue, 3)).To(Succeed())

		n, err := board.Read32(creec.DefaultWriteMap().WriteCount)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(uint32(1)))

		n, err = board.Read32(creec.DefaultReadMap().WriteCount)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(uint32(2)))
	})

	It("should fail accesses nobody claims", func() {
		bus := NewBus()

		_, err := bus.Read32(0x10)
		Expect(err).To(MatchError(mmio.ErrOutOfRange))

		var accessErr *mmio.AccessError
		Expect(err).To(BeAssignableToTypeOf(accessErr))
	})
})
