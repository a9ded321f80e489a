// Package config loads the register maps, operand formats and poll policy a
// driver run uses from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/sarchlab/mmiodrv/beat"
	"github.com/sarchlab/mmiodrv/cordic"
	"github.com/sarchlab/mmiodrv/creec"
	"github.com/sarchlab/mmiodrv/mmio"
)

const (
	// EnvConfig names the configuration file.
	EnvConfig = "MMIODRV_CONFIG"

	// DefaultFile is read when EnvConfig is not set and the file exists.
	DefaultFile = "mmiodrv.toml"
)

var ErrInvalid = errors.New("config: invalid")

// Config is the whole configuration of a run.
type Config struct {
	CREEC     CREEC     `toml:"creec"`
	CORDIC    CORDIC    `toml:"cordic"`
	Poll      Poll      `toml:"poll"`
	Framer    Framer    `toml:"framer"`
	DevMem    DevMem    `toml:"devmem"`
	Monitor   Monitor   `toml:"monitor"`
	Recording Recording `toml:"recording"`
}

// CREEC holds both directions of the CREEC unit.
type CREEC struct {
	Write creec.RegisterMap  `toml:"write"`
	Read  creec.RegisterMap  `toml:"read"`
	Noise creec.NoisePattern `toml:"noise"`

	// Vectors is a reference vector file. Empty means the builtin set.
	Vectors string `toml:"vectors"`
}

// CORDIC holds the queue addresses and lane formats of the CORDIC unit.
type CORDIC struct {
	Queues cordic.RegisterMap `toml:"queues"`
	Format cordic.Config      `toml:"format"`
}

// Poll mirrors mmio.PollPolicy. Durations are strings such as "10us".
type Poll struct {
	Interval    time.Duration `toml:"interval"`
	Multiplier  float64       `toml:"multiplier"`
	MaxInterval time.Duration `toml:"max_interval"`
	MaxAttempts int           `toml:"max_attempts"`
	Timeout     time.Duration `toml:"timeout"`
}

// Framer selects the byte order inside beats.
type Framer struct {
	Order        string `toml:"order"`
	BytesPerBeat int    `toml:"bytes_per_beat"`
}

// DevMem locates the register window in physical memory. Register
// addresses are offsets from Base.
type DevMem struct {
	Path string `toml:"path"`
	Base uint64 `toml:"base"`
	Size int    `toml:"size"`
}

// Monitor configures the HTTP monitor.
type Monitor struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
	Open    bool `toml:"open"`
}

// Recording configures the SQLite recorder.
type Recording struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	Accesses bool   `toml:"accesses"`
}

// Default returns the configuration of the reference hardware.
func Default() Config {
	p := mmio.DefaultPollPolicy()

	return Config{
		CREEC: CREEC{
			Write: creec.DefaultWriteMap(),
			Read:  creec.DefaultReadMap(),
		},
		CORDIC: CORDIC{
			Queues: cordic.DefaultRegisterMap(),
			Format: cordic.DefaultConfig(),
		},
		Poll: Poll{
			Interval:    p.Interval,
			Multiplier:  p.Multiplier,
			MaxInterval: p.MaxInterval,
			MaxAttempts: p.MaxAttempts,
			Timeout:     p.Timeout,
		},
		Framer: Framer{
			Order:        beat.ShiftIn.String(),
			BytesPerBeat: beat.BytesPerBeat,
		},
		DevMem: DevMem{
			Path: "/dev/mem",
			Base: 0,
			Size: 0x3000,
		},
		Monitor: Monitor{Port: 0},
	}
}

// Parse decodes TOML on top of the defaults. Unknown keys are an error.
func Parse(data string) (Config, error) {
	cfg := Default()

	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return Config{}, fmt.Errorf("%w: unknown keys %s",
			ErrInvalid, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads a file and parses it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnv reads a .env file in the working directory if there is one, then
// loads the file named by MMIODRV_CONFIG, or mmiodrv.toml if present, or
// returns the defaults.
func LoadEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}

	if path := os.Getenv(EnvConfig); path != "" {
		return Load(path)
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}

	return Default(), nil
}

// Validate checks every layout once so that later operations need not.
func (c Config) Validate() error {
	if err := c.CREEC.Write.Validate(); err != nil {
		return fmt.Errorf("%w: creec.write: %w", ErrInvalid, err)
	}

	if err := c.CREEC.Read.Validate(); err != nil {
		return fmt.Errorf("%w: creec.read: %w", ErrInvalid, err)
	}

	if c.CREEC.Write.Base == c.CREEC.Read.Base {
		return fmt.Errorf("%w: creec write and read share base 0x%x",
			ErrInvalid, c.CREEC.Write.Base)
	}

	if c.CREEC.Noise.Stride < 0 || c.CREEC.Noise.Count < 0 {
		return fmt.Errorf("%w: negative noise pattern", ErrInvalid)
	}

	if _, err := c.CORDIC.Format.Layout(); err != nil {
		return fmt.Errorf("%w: cordic: %w", ErrInvalid, err)
	}

	if _, err := c.BeatFramer(); err != nil {
		return fmt.Errorf("%w: framer: %w", ErrInvalid, err)
	}

	if c.Poll.Interval < 0 || c.Poll.MaxInterval < 0 || c.Poll.Timeout < 0 ||
		c.Poll.MaxAttempts < 0 || c.Poll.Multiplier < 0 {
		return fmt.Errorf("%w: negative poll setting", ErrInvalid)
	}

	if c.DevMem.Size < 0 {
		return fmt.Errorf("%w: negative devmem size", ErrInvalid)
	}

	return nil
}

// PollPolicy converts the poll table.
func (c Config) PollPolicy() mmio.PollPolicy {
	return mmio.PollPolicy{
		Interval:    c.Poll.Interval,
		Multiplier:  c.Poll.Multiplier,
		MaxInterval: c.Poll.MaxInterval,
		MaxAttempts: c.Poll.MaxAttempts,
		Timeout:     c.Poll.Timeout,
	}
}

// BeatFramer builds the configured framer.
func (c Config) BeatFramer() (*beat.Framer, error) {
	order, err := beat.ParseOrder(c.Framer.Order)
	if err != nil {
		return nil, err
	}

	return beat.NewFramer(order, c.Framer.BytesPerBeat)
}
