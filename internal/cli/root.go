// Package cli defines the spectradl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SpectraDL/internal/app"
	"SpectraDL/internal/config"
	"SpectraDL/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "spectradl",
	Short: "Fetch spectroscopic time series from DACE",
	Long: "spectradl enumerates, filters, and bulk-downloads spectroscopic\n" +
		"time-series files for a named star from the DACE archive, with\n" +
		"catalog lookups against SIMBAD.",
	SilenceUsage: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $SPECTRADL_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// newApp loads configuration per invocation and wires the application.
func newApp(cmd *cobra.Command) (*app.Application, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	var cfg config.Config
	if cfgPath != "" {
		cfg = config.LoadFile(cfgPath)
	} else {
		cfg = config.Load()
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	return app.New(cfg, logging.New(cfg.Logging.Level))
}
