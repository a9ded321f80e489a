package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mmiodrv/creec/refdata"
	"github.com/sarchlab/mmiodrv/datarecording"
	"github.com/sarchlab/mmiodrv/devsim"
	"github.com/sarchlab/mmiodrv/mmio"
	"github.com/sarchlab/mmiodrv/monitoring"
)

const (
	targetSim    = "sim"
	targetDevMem = "devmem"
)

var (
	target      string
	recordPath  string
	traceAccess bool
	monitorOn   bool
	simLatency  int
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&target, "target", "t", targetSim,
		"where the registers live: sim or devmem")
	f.StringVar(&recordPath, "record", "",
		"record transfers and results into this SQLite file")
	f.BoolVar(&traceAccess, "trace", false,
		"log and record every register access")
	f.BoolVar(&monitorOn, "monitor", false,
		"serve progress and device state over HTTP")
	f.IntVar(&simLatency, "sim-latency", 0,
		"completion polls a simulated device answers with zero")
}

// A bench is the register space a command runs against, with the
// recording and monitoring attached to it.
type bench struct {
	transport *mmio.Hooked
	devices   []devsim.Device
	recorder  datarecording.Recorder
	runLog    *datarecording.RunLog
	monitor   *monitoring.Monitor
	closers   []func() error
}

type deviceKind int

const (
	creecDevices deviceKind = iota
	cordicDevices
)

func openBench(cmd *cobra.Command, kind deviceKind) (*bench, error) {
	b := &bench{}

	inner, err := b.openTransport(kind)
	if err != nil {
		return nil, err
	}

	b.transport = mmio.NewHooked(target, inner)

	if traceAccess || cfg.Recording.Accesses {
		b.transport.AcceptHook(mmio.NewAccessLogger(logger))
	}

	if err := b.openRecorder(cmd); err != nil {
		b.close()
		return nil, err
	}

	if err := b.openMonitor(cmd); err != nil {
		b.close()
		return nil, err
	}

	return b, nil
}

func (b *bench) openTransport(kind deviceKind) (mmio.Transport, error) {
	switch target {
	case targetSim:
		return b.openSim(kind)
	case targetDevMem:
		dm, err := mmio.OpenDevMem(cfg.DevMem.Path, cfg.DevMem.Base, cfg.DevMem.Size)
		if err != nil {
			return nil, err
		}

		b.closers = append(b.closers, dm.Close)
		logger.Info().
			Str("path", cfg.DevMem.Path).
			Str("base", fmt.Sprintf("0x%x", cfg.DevMem.Base)).
			Int("size", cfg.DevMem.Size).
			Msg("register window mapped")

		return dm, nil
	default:
		return nil, &invalidFlagError{"target", target}
	}
}

func (b *bench) openSim(kind deviceKind) (mmio.Transport, error) {
	if kind == cordicDevices {
		d := devsim.MakeCORDICBuilder().
			WithRegisterMap(cfg.CORDIC.Queues).
			WithConfig(cfg.CORDIC.Format).
			WithLatency(simLatency).
			WithLogger(logger).
			Build("CORDIC")
		b.devices = append(b.devices, d)

		return devsim.NewBus(d), nil
	}

	vectors, err := loadVectors()
	if err != nil {
		return nil, err
	}

	framer, err := cfg.BeatFramer()
	if err != nil {
		return nil, err
	}

	pipeline := devsim.NewReferencePipeline(vectors)
	enc := devsim.MakeCREECBuilder().
		WithRegisterMap(cfg.CREEC.Write).
		WithDirection(devsim.Encode).
		WithPipeline(pipeline).
		WithFramer(framer).
		WithLatency(simLatency).
		WithLogger(logger).
		Build("EncodeUnit")
	dec := devsim.MakeCREECBuilder().
		WithRegisterMap(cfg.CREEC.Read).
		WithDirection(devsim.Decode).
		WithPipeline(pipeline).
		WithFramer(framer).
		WithLatency(simLatency).
		WithLogger(logger).
		Build("DecodeUnit")
	b.devices = append(b.devices, enc, dec)

	return devsim.NewBus(enc, dec), nil
}

func loadVectors() ([]refdata.Vector, error) {
	if cfg.CREEC.Vectors != "" {
		return refdata.LoadFile(cfg.CREEC.Vectors)
	}

	return refdata.Builtin()
}

func (b *bench) openRecorder(cmd *cobra.Command) error {
	path := recordPath
	if !cmd.Flags().Changed("record") {
		if !cfg.Recording.Enabled {
			return nil
		}

		path = cfg.Recording.Path
	}

	r, err := datarecording.New(path)
	if err != nil {
		return err
	}

	b.recorder = r
	b.closers = append(b.closers, r.Close)

	if b.runLog, err = datarecording.NewRunLog(r); err != nil {
		return err
	}

	if traceAccess || cfg.Recording.Accesses {
		tracer, err := datarecording.NewAccessTracer(r)
		if err != nil {
			return err
		}

		b.transport.AcceptHook(tracer)
	}

	return nil
}

func (b *bench) openMonitor(cmd *cobra.Command) error {
	enabled := monitorOn
	if !cmd.Flags().Changed("monitor") {
		enabled = cfg.Monitor.Enabled
	}

	if !enabled {
		return nil
	}

	m := monitoring.NewMonitor().
		WithLogger(logger).
		WithPortNumber(cfg.Monitor.Port)
	for _, d := range b.devices {
		m.RegisterDevice(d)
	}

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	cmd.PrintErrf("Monitoring at %s\n", url)
	b.monitor = m
	b.closers = append(b.closers, m.StopServer)

	if cfg.Monitor.Open {
		if err := m.OpenInBrowser(); err != nil {
			logger.Warn().Err(err).Msg("open browser")
		}
	}

	return nil
}

// close ends the run log and releases everything in reverse order.
func (b *bench) close() error {
	var errs []error

	if b.runLog != nil {
		errs = append(errs, b.runLog.End())
	}

	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}

	return errors.Join(errs...)
}
