package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/mmiodrv/logging"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}

	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)

	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

var _ = Describe("mmiodrv", func() {
	var (
		out  *bytes.Buffer
		logs *bytes.Buffer
		dir  string
		cwd  string
	)

	run := func(args ...string) error {
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	}

	BeforeEach(func() {
		resetFlags(rootCmd)

		out = &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetErr(out)

		logs = &bytes.Buffer{}
		logging.SetOutput(logs)

		var err error
		cwd, err = os.Getwd()
		Expect(err).ToNot(HaveOccurred())

		dir = GinkgoT().TempDir()
		Expect(os.Chdir(dir)).To(Succeed())
	})

	AfterEach(func() {
		logging.SetOutput(GinkgoWriter)
		Expect(os.Chdir(cwd)).To(Succeed())
	})

	It("should list the reference vectors", func() {
		Expect(run("creec", "vectors")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("creec-basic"))
		Expect(out.String()).To(ContainSubstring("header 8 1 1 1 4 8 0"))
	})

	It("should pass a round trip on the simulator", func() {
		Expect(run("creec", "roundtrip", "--sim-latency", "3")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Encoder header out: 8 1 1 1 4 8 0"))
		Expect(out.String()).To(ContainSubstring("Encoder header expected: 8 1 1 1 4 8 0"))
		Expect(out.String()).To(ContainSubstring("Decoder header out: 6 0 0 0 0 0 0"))
		Expect(out.String()).To(ContainSubstring("Encoder PASSED"))
		Expect(out.String()).To(ContainSubstring("Decoder PASSED"))
	})

	It("should survive correctable noise", func() {
		Expect(run("creec", "roundtrip",
			"--noise-stride", "16", "--noise-count", "4")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Decoder PASSED"))
	})

	It("should fail on uncorrectable noise", func() {
		err := run("creec", "roundtrip",
			"--noise-stride", "8", "--noise-count", "4", "--offsets")

		Expect(err).To(MatchError(errValidationFailed))
		Expect(out.String()).To(ContainSubstring("Decoder FAILED"))
		Expect(out.String()).To(ContainSubstring("mismatching offsets"))
	})

	It("should reject an unknown vector", func() {
		Expect(run("creec", "roundtrip", "--vector", "nope")).ToNot(Succeed())
	})

	It("should reject an unknown target", func() {
		err := run("creec", "roundtrip", "--target", "fpga")

		var flagErr *invalidFlagError
		Expect(err).To(BeAssignableToTypeOf(flagErr))
	})

	It("should record a run and report it", func() {
		path := filepath.Join(dir, "run.sqlite3")

		Expect(run("creec", "roundtrip", "--record", path, "--trace")).To(Succeed())

		out.Reset()
		resetFlags(rootCmd)
		Expect(run("report", path)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("register_access"))
		Expect(out.String()).To(ContainSubstring("transfer_result  2 rows"))
		Expect(out.String()).To(ContainSubstring("Encoder PASSED (0 mismatches)"))
	})

	It("should read the configuration file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "mmiodrv.toml"),
			[]byte("[creec.noise]\nstride = 8\ncount = 4\n"), 0o644)).To(Succeed())

		err := run("creec", "roundtrip")

		Expect(err).To(MatchError(errValidationFailed))
	})

	It("should compute on the simulated CORDIC", func() {
		Expect(run("cordic", "-x", "1", "-y", "0", "-z", "0",
			"--sim-latency", "2")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("operand: 0x1000000"))
		Expect(out.String()).To(ContainSubstring("result:  x=64 y=0 z=0"))
	})

	It("should refuse overflowing operands when checked", func() {
		Expect(run("cordic", "-x", "5", "--checked")).ToNot(Succeed())
	})

	It("should log register accesses at debug level", func() {
		Expect(run("--log-level", "debug", "--trace",
			"creec", "roundtrip")).To(Succeed())

		Expect(logs.String()).To(ContainSubstring("register access"))
	})

	It("should hide register accesses above debug level", func() {
		Expect(run("--log-level", "info", "--trace",
			"creec", "roundtrip")).To(Succeed())

		Expect(logs.String()).ToNot(ContainSubstring("register access"))
		Expect(logs.String()).To(ContainSubstring("transfer complete"))
	})

	It("should reject a bad log level", func() {
		Expect(run("creec", "vectors", "--log-level", "loud")).ToNot(Succeed())
	})
})
