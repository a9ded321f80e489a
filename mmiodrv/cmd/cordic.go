package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/mmiodrv/cordic"
)

var (
	cordicX, cordicY, cordicZ float64
	cordicVectoring           bool
	cordicChecked             bool
)

var cordicCmd = &cobra.Command{
	Use:   "cordic",
	Short: "Send one operand through the CORDIC unit.",
	Long: "`cordic` packs (x, y, z) into one operand word, pushes it into " +
		"the CORDIC write queue, waits for the result and prints it both " +
		"raw and scaled back to real values.",
	RunE: runCordic,
}

func init() {
	rootCmd.AddCommand(cordicCmd)

	f := cordicCmd.Flags()
	f.Float64VarP(&cordicX, "x", "x", 1, "x coordinate")
	f.Float64VarP(&cordicY, "y", "y", 0, "y coordinate")
	f.Float64VarP(&cordicZ, "z", "z", 0, "angle in radians")
	f.BoolVar(&cordicVectoring, "vectoring", false,
		"rotate onto the x axis instead of by z")
	f.BoolVar(&cordicChecked, "checked", false,
		"fail on lanes that do not fit instead of wrapping")
}

func runCordic(cmd *cobra.Command, _ []string) (err error) {
	b, err := openBench(cmd, cordicDevices)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := b.close(); err == nil {
			err = cerr
		}
	}()

	driver := cordic.MakeBuilder().
		WithTransport(b.transport).
		WithRegisterMap(cfg.CORDIC.Queues).
		WithConfig(cfg.CORDIC.Format).
		WithPollPolicy(cfg.PollPolicy()).
		WithLogger(logger).
		Build("CORDICDriver")

	op := cordic.Operand{X: cordicX, Y: cordicY, Z: cordicZ, Vectoring: cordicVectoring}

	raw, err := driver.Codec().PackChecked(op)
	if err != nil && cordicChecked {
		return err
	}

	if err != nil {
		logger.Warn().Err(err).Msg("operand lane wraps")
		raw = driver.Codec().Pack(op)
	}

	cmd.Printf("operand: 0x%x\n", raw)

	out, err := driver.Compute(commandContext(cmd), op)
	if err != nil {
		return err
	}

	x, y, z := out.Float(driver.Codec().Config())
	cmd.Printf("result:  x=%d y=%d z=%d\n", out.X, out.Y, out.Z)
	cmd.Printf("scaled:  x=%.6f y=%.6f z=%.6f\n", x, y, z)

	return nil
}
