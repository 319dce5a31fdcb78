// Package main is the entry point for the labelpress binary. It serves the
// label web interface, renders label sheets in batch and initialises the
// data directory.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "labelpress",
	Short: "Binder spine labels as print-ready PDF",
	Long: `labelpress keeps a list of binder labels and renders them as A4 sheets
of spine labels, coloured by category and year.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		setupLogger(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: $DATA_DIR or ./data)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	setupLogger(slog.LevelInfo)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger installs the default text logger at the given level.
func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
