package devsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("fifo", func() {
	It("should pop in push order", func() {
		q := fifo{}
		Expect(q.push(1)).To(Succeed())
		Expect(q.push(2)).To(Succeed())

		v, err := q.pop()
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(uint64(1)))
		Expect(q.size()).To(Equal(1))
	})

	It("should report empty", func() {
		q := fifo{}
		_, err := q.pop()
		Expect(err).To(MatchError(ErrQueueEmpty))
	})

	It("should enforce capacity", func() {
		q := fifo{capacity: 1}
		Expect(q.push(1)).To(Succeed())
		Expect(q.push(2)).To(MatchError(ErrQueueFull))
	})

	It("should take at most what it holds", func() {
		q := fifo{}
		_ = q.push(1)
		_ = q.push(2)
		_ = q.push(3)

		Expect(q.take(2)).To(Equal([]uint64{1, 2}))
		Expect(q.take(5)).To(Equal([]uint64{3}))
		Expect(q.size()).To(Equal(0))
	})
})
