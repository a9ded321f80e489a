package creec_test

import (
	"context"

	"github.com/rs/zerolog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/creec/refdata"
	"github.com/sarchlab/mmiodrv/devsim"
	"github.com/sarchlab/mmiodrv/mmio"
)

var _ = Describe("RoundTrip", func() {
	var (
		vector refdata.Vector
		board  *devsim.Board
		enc    *creec.Session
		dec    *creec.Session
	)

	build := func(order beat.Order) {
		framer, err := beat.NewFramer(order, beat.BytesPerBeat)
		Expect(err).ToNot(HaveOccurred())

		board = devsim.NewBoard(
			devsim.NewReferencePipeline([]refdata.Vector{vector}),
			framer,
			zerolog.Nop(),
		)
		enc = creec.MakeBuilder().
			WithTransport(board).
			WithRegisterMap(creec.DefaultWriteMap()).
			WithFramer(framer).
			Build("Encoder")
		dec = creec.MakeBuilder().
			WithTransport(board).
			WithRegisterMap(creec.DefaultReadMap()).
			WithFramer(framer).
			Build("Decoder")
	}

	BeforeEach(func() {
		vector = refdata.Basic()
		build(beat.ShiftIn)
	})

	It("should reproduce the reference encoding and the payload", func() {
		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded)

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Passed()).To(BeTrue())
		Expect(report.Encode.String()).To(Equal("Encoder PASSED"))
		Expect(report.Decode.String()).To(Equal("Decoder PASSED"))
	})

	It("should report the stage headers", func() {
		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded)
		Expect(err).ToNot(HaveOccurred())

		Expect(report.EncodeTransfer.Sent.String()).To(Equal("6 0 0 0 0 0 0"))
		Expect(report.EncodeTransfer.Received.String()).To(Equal("8 1 1 1 4 8 0"))
		Expect(report.DecodeTransfer.Sent.String()).To(Equal("8 1 1 1 4 8 0"))
		Expect(report.DecodeTransfer.Received.String()).To(Equal("6 0 0 0 0 0 0"))
	})

	It("should work with most significant byte first framing", func() {
		build(beat.MSBFirst)

		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded)

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Passed()).To(BeTrue())
	})

	It("should recover from correctable noise", func() {
		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded,
			creec.WithNoise(creec.NoisePattern{Stride: 16, Count: 4}))

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Passed()).To(BeTrue())
	})

	It("should report mismatches for uncorrectable noise", func() {
		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded,
			creec.WithNoise(creec.NoisePattern{Stride: 8, Count: 4}),
			creec.WithOffsets())

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Encode.Passed()).To(BeTrue())
		Expect(report.Decode.Passed()).To(BeFalse())
		Expect(report.Decode.Received).To(Equal(64))
		Expect(report.Decode.Offsets).To(HaveLen(report.Decode.Mismatches))
	})

	It("should report an encode mismatch against a wrong reference", func() {
		golden := append([]byte(nil), vector.Encoded...)
		golden[3] ^= 0xff

		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, golden, creec.WithOffsets())

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Encode.Mismatches).To(Equal(1))
		Expect(report.Encode.Offsets).To(Equal([]int{3}))
		Expect(report.Decode.Passed()).To(BeTrue())
	})

	It("should time out against a stalled unit", func() {
		board.Encoder.Stall = true
		enc = creec.MakeBuilder().
			WithTransport(board).
			WithPollPolicy(mmio.PollPolicy{MaxAttempts: 10}).
			Build("Encoder")

		_, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded)

		Expect(err).To(MatchError(mmio.ErrTimeout))
		Expect(enc.State()).To(Equal(creec.Failed))
		Expect(dec.State()).To(Equal(creec.Idle))
	})

	It("should wait out device latency", func() {
		board.Encoder.Latency = 5

		report, err := creec.RoundTrip(context.Background(),
			enc, dec, vector.Payload, vector.Encoded)

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Passed()).To(BeTrue())
		Expect(report.EncodeTransfer.PollAttempts).To(Equal(6))
	})
})

var _ = Describe("Compare", func() {
	It("should count differing bytes", func() {
		r := creec.Compare("X", []byte{1, 2, 3}, []byte{1, 0, 3}, true)

		Expect(r.Mismatches).To(Equal(1))
		Expect(r.Offsets).To(Equal([]int{1}))
		Expect(r.String()).To(Equal("X FAILED with 1 mismatches"))
	})

	It("should count missing bytes", func() {
		r := creec.Compare("X", []byte{1}, []byte{1, 2, 3}, false)

		Expect(r.Mismatches).To(Equal(2))
		Expect(r.Offsets).To(BeEmpty())
	})
})

var _ = Describe("NoisePattern", func() {
	It("should overwrite the head of every stride", func() {
		data := make([]byte, 10)
		for i := range data {
			data[i] = 0xff
		}

		out := creec.NoisePattern{Stride: 4, Count: 2}.Apply(data)

		Expect(out).To(Equal([]byte{0, 1, 0xff, 0xff, 0, 1, 0xff, 0xff, 0, 1}))
		Expect(data[0]).To(Equal(byte(0xff)))
	})

	It("should leave data alone when disabled", func() {
		data := []byte{9, 9}

		Expect(creec.NoisePattern{}.Apply(data)).To(Equal(data))
	})
})
