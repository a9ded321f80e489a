// Package cmd provides the command-line interface of mmiodrv.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mmiodrv/config"
	"github.com/sarchlab/mmiodrv/logging"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmiodrv",
	Short: "Drive CREEC and CORDIC units over memory-mapped registers.",
	Long: `mmiodrv drives CREEC (compression, encryption, ECC) and CORDIC ` +
		`units through their register queues, on hardware via /dev/mem or ` +
		`against simulated devices, and checks the results against ` +
		`reference vectors.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadEnv()
		}

		if err != nil {
			return err
		}

		logging.ConfigureRuntime()

		lvl := logging.Level()
		if logLevel != "" {
			var ok bool
			if lvl, ok = logging.ParseLevel(logLevel); !ok {
				return &invalidFlagError{"log-level", logLevel}
			}
		}

		logger = logging.SetLevel(lvl)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file (default $"+config.EnvConfig+" or "+
			config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error, off)")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
