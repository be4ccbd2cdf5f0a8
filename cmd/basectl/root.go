package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/basekit/internal/config"
	"github.com/joshuapare/basekit/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	jsonOut bool

	// settings is loaded once before any subcommand runs.
	settings = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "basectl",
	Short: "Inspect the basekit platform layer and run self-checks",
	Long: `basectl reports what the basekit platform layer sees on this host and
exercises its allocator contexts and synchronization primitives.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a YAML settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	s, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	settings = s

	level := logger.ParseLevel(settings.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{
		Enabled: true,
		Output:  os.Stderr,
		Level:   level,
		JSON:    settings.Log.JSON,
	})
	return nil
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
