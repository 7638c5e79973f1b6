package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapcheck/internal/logger"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	human     bool
	debug     bool
	logFile   string
	arenaSize int
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise and inspect the heapcheck debugging allocator",
	Long: `heapctl runs small allocation programs against a fresh heapcheck
arena and prints the resulting allocation statistics and leak report. The
memory-bug scenarios demonstrate the diagnostics printed when a program
frees an invalid pointer or writes past the end of an allocation.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		BoolVar(&human, "human", false, "Group digits in statistics (e.g. 8,000,000)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log allocator events to stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write debug log to this file")
	rootCmd.PersistentFlags().
		IntVar(&arenaSize, "arena-size", 0, "Arena size in bytes (default 8 MiB)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func initLogging() error {
	if !debug && logFile == "" {
		return nil
	}
	return logger.Init(logger.Options{
		Enabled: true,
		Path:    logFile,
		Level:   slog.LevelDebug,
		JSON:    jsonOut,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
