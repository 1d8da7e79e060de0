package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// nolint: gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "expirycache",
	Short: "Demonstrates and benchmarks the expiry cache engines",
}

func main() {
	rootCmd.PersistentFlags().Bool("debug", false, "log sweeper activity")

	rootCmd.AddCommand(newDemoCommand(), newBenchCommand())

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErr(err)
		os.Exit(-1)
	}
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
