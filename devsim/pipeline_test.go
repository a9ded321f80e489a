package devsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/creec/refdata"
)

var _ = Describe("ReferencePipeline", func() {
	var (
		vector   refdata.Vector
		pipeline *ReferencePipeline
	)

	BeforeEach(func() {
		vector = refdata.Basic()
		pipeline = NewReferencePipeline([]refdata.Vector{vector})
	})

	It("should encode a known payload", func() {
		h, out := pipeline.Process(Encode, creec.Header{BeatCount: 6}, vector.Payload)

		Expect(out).To(Equal(vector.Encoded))
		Expect(h.Stages()).To(Equal(vector.Header.Stages()))
	})

	It("should pass an unknown payload through", func() {
		payload := make([]byte, 16)
		h, out := pipeline.Process(Encode, creec.Header{BeatCount: 2}, payload)

		Expect(out).To(Equal(payload))
		Expect(h).To(Equal(creec.Header{}))
	})

	It("should decode a known encoding", func() {
		h, out := pipeline.Process(Decode, vector.Header.Stages(), vector.Encoded)

		Expect(out).To(Equal(vector.Payload))
		Expect(h).To(Equal(creec.Header{}))
	})

	It("should correct up to the correctable byte count", func() {
		noisy := creec.NoisePattern{Stride: 16, Count: 4}.Apply(vector.Encoded)

		_, out := pipeline.Process(Decode, vector.Header.Stages(), noisy)

		Expect(out).To(Equal(vector.Payload))
	})

	It("should not correct beyond the correctable byte count", func() {
		noisy := creec.NoisePattern{Stride: 8, Count: 4}.Apply(vector.Encoded)

		_, out := pipeline.Process(Decode, vector.Header.Stages(), noisy)

		Expect(out).To(Equal(noisy))
	})

	It("should not decode when the stage report differs", func() {
		_, out := pipeline.Process(Decode, creec.Header{Compressed: 1}, vector.Encoded)

		Expect(out).To(Equal(vector.Encoded))
	})
})
