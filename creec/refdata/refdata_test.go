package refdata_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/creec/refdata"
)

var _ = Describe("Reference vectors", func() {
	It("should load the basic vector", func() {
		v := refdata.Basic()

		Expect(v.Payload).To(HaveLen(48))
		Expect(v.Encoded).To(HaveLen(64))
		Expect(v.Payload[:8]).To(Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
		Expect(v.Payload[39:41]).To(Equal([]byte{3, 3}))
		Expect(v.Encoded[:4]).To(Equal([]byte{31, 30, 0xa8, 0x9f}))
		Expect(v.Header).To(Equal(creec.Header{
			BeatCount:          8,
			Compressed:         1,
			Encrypted:          1,
			ECC:                1,
			CompressedPadBytes: 4,
			EncryptedPadBytes:  8,
		}))
	})

	It("should accept signed byte values", func() {
		vectors, err := refdata.Parse([]byte(`
[[vector]]
name = "signed"
payload = [1, 2]
encoded = [-88, -1, 255]
`))
		Expect(err).ToNot(HaveOccurred())
		Expect(vectors).To(HaveLen(1))
		Expect(vectors[0].Encoded).To(Equal([]byte{0xa8, 0xff, 0xff}))
	})

	It("should reject values that are not bytes", func() {
		_, err := refdata.Parse([]byte(`
[[vector]]
name = "bad"
payload = [256]
`))
		Expect(err).To(MatchError(ContainSubstring("not a byte")))
	})

	It("should report unknown names", func() {
		_, err := refdata.Get("missing")
		Expect(err).To(HaveOccurred())
	})
})
