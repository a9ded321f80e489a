package creec_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/mmio"
)

type beatCounter struct {
	count uint64
}

func (c *beatCounter) IncrementFinished(n uint64) {
	c.count += n
}

var _ = Describe("Session", func() {
	var (
		mockCtrl  *gomock.Controller
		transport *MockTransport
		regs      creec.RegisterMap
		progress  *beatCounter
		session   *creec.Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		transport = NewMockTransport(mockCtrl)
		regs = creec.DefaultWriteMap()
		progress = &beatCounter{}
		session = creec.MakeBuilder().
			WithTransport(transport).
			WithRegisterMap(regs).
			WithPollPolicy(mmio.PollPolicy{MaxAttempts: 3}).
			WithProgress(progress).
			Build("Encoder")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	sendHeader := func(beats uint32) {
		transport.EXPECT().Write32(gomock.Any(), gomock.Any()).Times(creec.NumFields)
		Expect(session.SendHeader(creec.Header{BeatCount: beats})).To(Succeed())
	}

	It("should start idle", func() {
		Expect(session.State()).To(Equal(creec.Idle))
		Expect(session.Name()).To(Equal("Encoder"))
		Expect(session.Framer().Order()).To(Equal(beat.ShiftIn))
	})

	It("should panic without a transport", func() {
		Expect(func() { creec.MakeBuilder().Build("NoTransport") }).To(Panic())
	})

	It("should panic when no output beats are allowed", func() {
		Expect(func() {
			creec.MakeBuilder().
				WithTransport(transport).
				WithMaxBeats(0).
				Build("Encoder")
		}).To(Panic())
	})

	It("should panic with an invalid register map", func() {
		m := regs
		m.WriteQueue = 0x2001

		Expect(func() {
			creec.MakeBuilder().WithTransport(transport).WithRegisterMap(m).Build("Bad")
		}).To(Panic())
	})

	It("should move to HeaderSent after the header", func() {
		sendHeader(2)

		Expect(session.State()).To(Equal(creec.HeaderSent))
	})

	It("should refuse a payload before the header", func() {
		err := session.SendPayload(make([]byte, 8))

		Expect(err).To(MatchError(creec.ErrInvalidState))

		var stateErr *creec.StateError
		Expect(errors.As(err, &stateErr)).To(BeTrue())
		Expect(stateErr.Have).To(Equal(creec.Idle))
		Expect(stateErr.Want).To(Equal(creec.HeaderSent))
	})

	It("should refuse enable before the payload", func() {
		sendHeader(1)

		Expect(session.Enable()).To(MatchError(creec.ErrInvalidState))
	})

	It("should refuse receive before polling", func() {
		_, err := session.Receive()

		Expect(err).To(MatchError(creec.ErrInvalidState))
	})

	It("should reject a ragged payload before touching the queue", func() {
		sendHeader(2)

		err := session.SendPayload(make([]byte, 12))

		var shapeErr *beat.ShapeError
		Expect(errors.As(err, &shapeErr)).To(BeTrue())
		Expect(shapeErr.Length).To(Equal(12))
		Expect(session.State()).To(Equal(creec.HeaderSent))
	})

	It("should reject a ragged payload in Run before any access", func() {
		_, err := session.Run(context.Background(), creec.Header{}, make([]byte, 5))

		var shapeErr *beat.ShapeError
		Expect(errors.As(err, &shapeErr)).To(BeTrue())
		Expect(session.State()).To(Equal(creec.Idle))
	})

	It("should reject a payload that disagrees with the header", func() {
		sendHeader(2)

		err := session.SendPayload(make([]byte, 24))

		Expect(err).To(MatchError(creec.ErrBeatCountMismatch))
	})

	It("should stream beats into the write queue", func() {
		sendHeader(2)
		gomock.InOrder(
			transport.EXPECT().Write64(regs.WriteQueue, uint64(0x0807060504030201)),
			transport.EXPECT().Write64(regs.WriteQueue, uint64(0x100f0e0d0c0b0a09)),
		)

		payload := make([]byte, 16)
		for i := range payload {
			payload[i] = byte(i + 1)
		}

		Expect(session.SendPayload(payload)).To(Succeed())
		Expect(session.State()).To(Equal(creec.PayloadSent))
		Expect(progress.count).To(Equal(uint64(2)))
	})

	It("should fail the session on a transport error", func() {
		sendHeader(1)
		transport.EXPECT().
			Write64(regs.WriteQueue, gomock.Any()).
			Return(mmio.ErrClosed)

		err := session.SendPayload(make([]byte, 8))

		Expect(err).To(MatchError(mmio.ErrClosed))
		Expect(session.State()).To(Equal(creec.Failed))
	})

	It("should write one to the enable register", func() {
		sendHeader(1)
		transport.EXPECT().Write64(gomock.Any(), gomock.Any())
		Expect(session.SendPayload(make([]byte, 8))).To(Succeed())

		transport.EXPECT().Write32(regs.Enable(), uint32(1))

		Expect(session.Enable()).To(Succeed())
		Expect(session.State()).To(Equal(creec.Enabled))
	})

	Context("when enabled", func() {
		BeforeEach(func() {
			sendHeader(1)
			transport.EXPECT().Write64(gomock.Any(), gomock.Any())
			Expect(session.SendPayload(make([]byte, 8))).To(Succeed())
			transport.EXPECT().Write32(regs.Enable(), uint32(1))
			Expect(session.Enable()).To(Succeed())
		})

		It("should poll until the output beat count is non-zero", func() {
			gomock.InOrder(
				transport.EXPECT().Read32(regs.OutBeatCount()).Return(uint32(0), nil),
				transport.EXPECT().Read32(regs.OutBeatCount()).Return(uint32(1), nil),
			)

			Expect(session.Wait(context.Background())).To(Succeed())
			Expect(session.State()).To(Equal(creec.Polling))
		})

		It("should time out when the unit never completes", func() {
			transport.EXPECT().
				Read32(regs.OutBeatCount()).
				Return(uint32(0), nil).
				Times(3)

			err := session.Wait(context.Background())

			Expect(err).To(MatchError(mmio.ErrTimeout))
			Expect(session.State()).To(Equal(creec.Failed))
		})

		It("should stop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := session.Wait(ctx)

			Expect(err).To(MatchError(context.Canceled))
			Expect(session.State()).To(Equal(creec.Failed))
		})

		It("should receive the announced number of beats", func() {
			transport.EXPECT().Read32(regs.OutBeatCount()).Return(uint32(1), nil)
			Expect(session.Wait(context.Background())).To(Succeed())

			for i, v := range []uint32{1, 0, 0, 0, 0, 0, 0} {
				transport.EXPECT().
					Read32(regs.Base+creec.OutOffsets[i]).
					Return(v, nil)
			}
			transport.EXPECT().
				Read64(regs.ReadQueue).
				Return(uint64(0x0807060504030201), nil)

			t, err := session.Receive()

			Expect(err).ToNot(HaveOccurred())
			Expect(session.State()).To(Equal(creec.Completed))
			Expect(t.Received).To(Equal(creec.Header{BeatCount: 1}))
			Expect(t.Payload).To(Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(t.PollAttempts).To(Equal(1))
			Expect(progress.count).To(Equal(uint64(2)))
		})

		It("should refuse a header announcing more beats than allowed", func() {
			transport.EXPECT().Read32(regs.OutBeatCount()).Return(uint32(1), nil)
			Expect(session.Wait(context.Background())).To(Succeed())

			for i, v := range []uint32{0xffffffff, 0, 0, 0, 0, 0, 0} {
				transport.EXPECT().
					Read32(regs.Base+creec.OutOffsets[i]).
					Return(v, nil)
			}

			_, err := session.Receive()

			Expect(err).To(MatchError(creec.ErrTooManyBeats))
			Expect(session.State()).To(Equal(creec.Failed))
		})

		It("should stop at the first failed beat read", func() {
			transport.EXPECT().Read32(regs.OutBeatCount()).Return(uint32(1), nil)
			Expect(session.Wait(context.Background())).To(Succeed())

			for i, v := range []uint32{creec.DefaultMaxBeats, 0, 0, 0, 0, 0, 0} {
				transport.EXPECT().
					Read32(regs.Base+creec.OutOffsets[i]).
					Return(v, nil)
			}
			queueEmpty := errors.New("queue empty")
			gomock.InOrder(
				transport.EXPECT().Read64(regs.ReadQueue).Return(uint64(1), nil),
				transport.EXPECT().Read64(regs.ReadQueue).Return(uint64(0), queueEmpty),
			)

			_, err := session.Receive()

			Expect(err).To(MatchError(queueEmpty))
			Expect(err.Error()).To(ContainSubstring("receive beat 1"))
			Expect(session.State()).To(Equal(creec.Failed))
		})
	})
})
