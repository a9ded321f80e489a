package mmio_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/mmio"
)

var _ = Describe("Poll", func() {
	It("should return once the condition holds", func() {
		calls := 0
		attempts, err := mmio.Poll(context.Background(), mmio.PollForever(),
			func() (bool, error) {
				calls++
				return calls == 5, nil
			})

		Expect(err).ToNot(HaveOccurred())
		Expect(attempts).To(Equal(5))
	})

	It("should time out after the attempt bound", func() {
		p := mmio.PollPolicy{MaxAttempts: 10}
		attempts, err := mmio.Poll(context.Background(), p,
			func() (bool, error) { return false, nil })

		Expect(attempts).To(Equal(10))
		Expect(err).To(MatchError(mmio.ErrTimeout))

		var timeout *mmio.TimeoutError
		Expect(errors.As(err, &timeout)).To(BeTrue())
		Expect(timeout.Attempts).To(Equal(10))
	})

	It("should time out after the duration bound", func() {
		p := mmio.PollPolicy{
			Interval:    time.Millisecond,
			MaxInterval: time.Millisecond,
			Timeout:     20 * time.Millisecond,
		}

		_, err := mmio.Poll(context.Background(), p,
			func() (bool, error) { return false, nil })

		Expect(err).To(MatchError(mmio.ErrTimeout))
	})

	It("should stop when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := mmio.Poll(ctx, mmio.PollForever(),
			func() (bool, error) { return false, nil })

		Expect(err).To(MatchError(context.Canceled))
	})

	It("should stop on condition errors", func() {
		boom := errors.New("boom")
		attempts, err := mmio.Poll(context.Background(), mmio.PollForever(),
			func() (bool, error) { return false, boom })

		Expect(attempts).To(Equal(1))
		Expect(err).To(MatchError(boom))
	})

	It("should back off up to the cap", func() {
		p := mmio.PollPolicy{
			Interval:    time.Microsecond,
			Multiplier:  2,
			MaxInterval: 10 * time.Microsecond,
		}

		Expect(p.Delay(1)).To(BeZero())
		Expect(p.Delay(2)).To(Equal(time.Microsecond))
		Expect(p.Delay(3)).To(Equal(2 * time.Microsecond))
		Expect(p.Delay(4)).To(Equal(4 * time.Microsecond))
		Expect(p.Delay(10)).To(Equal(10 * time.Microsecond))
	})

	It("should tell bounded policies apart", func() {
		Expect(mmio.DefaultPollPolicy().Bounded()).To(BeTrue())
		Expect(mmio.PollForever().Bounded()).To(BeFalse())
	})
})
