package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/creec/refdata"
)

var (
	vectorName  string
	noiseStride int
	noiseCount  int
	showOffsets bool
)

var creecCmd = &cobra.Command{
	Use:   "creec",
	Short: "Run transfers through the CREEC units.",
}

var roundTripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Encode a reference payload, check it, decode it and check again.",
	Long: "`creec roundtrip` streams the payload of a reference vector " +
		"through the write path unit, compares the output with the " +
		"vector's encoding, feeds that output (optionally corrupted) to " +
		"the read path unit and compares the result with the payload.",
	RunE: runRoundTrip,
}

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "List the reference vectors.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		vectors, err := loadVectors()
		if err != nil {
			return err
		}

		for _, v := range vectors {
			cmd.Printf("%-16s payload %3d bytes  encoded %3d bytes  header %s\n",
				v.Name, len(v.Payload), len(v.Encoded), v.Header)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(creecCmd)
	creecCmd.AddCommand(roundTripCmd)
	creecCmd.AddCommand(vectorsCmd)

	f := roundTripCmd.Flags()
	f.StringVar(&vectorName, "vector", "creec-basic", "reference vector to send")
	f.IntVar(&noiseStride, "noise-stride", 0,
		"corrupt the head of every this many encoded bytes")
	f.IntVar(&noiseCount, "noise-count", 0,
		"number of bytes corrupted per stride")
	f.BoolVar(&showOffsets, "offsets", false, "print mismatching offsets")
}

func findVector(name string) (refdata.Vector, error) {
	vectors, err := loadVectors()
	if err != nil {
		return refdata.Vector{}, err
	}

	for _, v := range vectors {
		if v.Name == name {
			return v, nil
		}
	}

	return refdata.Vector{}, fmt.Errorf("no reference vector named %q", name)
}

func runRoundTrip(cmd *cobra.Command, _ []string) (err error) {
	vector, err := findVector(vectorName)
	if err != nil {
		return err
	}

	b, err := openBench(cmd, creecDevices)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := b.close(); err == nil {
			err = cerr
		}
	}()

	framer, err := cfg.BeatFramer()
	if err != nil {
		return err
	}

	builder := creec.MakeBuilder().
		WithTransport(b.transport).
		WithFramer(framer).
		WithPollPolicy(cfg.PollPolicy()).
		WithLogger(logger)

	encBuilder := builder.WithRegisterMap(cfg.CREEC.Write)
	decBuilder := builder.WithRegisterMap(cfg.CREEC.Read)

	if b.monitor != nil {
		total := uint64(2 * (len(vector.Payload) + len(vector.Encoded)) / framer.BytesPerBeat())
		bar := b.monitor.CreateProgressBar("roundtrip "+vector.Name, total)
		encBuilder = encBuilder.WithProgress(bar)
		decBuilder = decBuilder.WithProgress(bar)
	}

	enc := encBuilder.Build("Encoder")
	dec := decBuilder.Build("Decoder")

	if b.monitor != nil {
		b.monitor.RegisterDevice(enc)
		b.monitor.RegisterDevice(dec)
	}

	noise := cfg.CREEC.Noise
	if cmd.Flags().Changed("noise-stride") || cmd.Flags().Changed("noise-count") {
		noise = creec.NoisePattern{Stride: noiseStride, Count: noiseCount}
	}

	opts := []creec.RoundTripOption{creec.WithNoise(noise)}
	if showOffsets {
		opts = append(opts, creec.WithOffsets())
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := creec.RoundTrip(ctx, enc, dec, vector.Payload, vector.Encoded, opts...)
	if err != nil {
		return err
	}

	if b.runLog != nil {
		if err := b.runLog.RecordRoundTrip(enc.Name(), dec.Name(), report); err != nil {
			return err
		}
	}

	printTransfer(cmd, "Encoder", report.EncodeTransfer)
	cmd.Printf("Encoder header expected: %s\n", vector.Header)
	if report.EncodeTransfer.Received != vector.Header {
		logger.Warn().
			Stringer("received", report.EncodeTransfer.Received).
			Stringer("expected", vector.Header).
			Msg("encoder stage report differs from the reference")
	}

	printTransfer(cmd, "Decoder", report.DecodeTransfer)
	printResult(cmd, report.Encode)
	printResult(cmd, report.Decode)

	if !report.Passed() {
		return errValidationFailed
	}

	return nil
}

func printTransfer(cmd *cobra.Command, name string, t creec.Transfer) {
	cmd.Printf("%s header in:  %s\n", name, t.Sent)
	cmd.Printf("%s header out: %s\n", name, t.Received)
}

func printResult(cmd *cobra.Command, r creec.Result) {
	cmd.Println(r)

	if len(r.Offsets) > 0 {
		cmd.Printf("  mismatching offsets: %v\n", r.Offsets)
	}
}

// commandContext returns the command context or a background one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
