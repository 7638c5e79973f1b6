package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapcheck/heap/alloc"
	hc "github.com/joshuapare/heapcheck/pkg/heapcheck"
)

var (
	showLeaks bool

	// Overridden by tests. Nil keeps the heapcheck defaults: diagnostics on
	// stderr and exit status 134.
	bugOut    io.Writer
	abortHook func(error)
)

func init() {
	cmd := newScenarioCmd()
	cmd.Flags().BoolVar(&showLeaks, "leaks", false, "Print the leak report after the statistics")
	rootCmd.AddCommand(cmd)
	rootCmd.AddCommand(newScenariosCmd())
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Run an allocation scenario and print statistics",
		Long: `The scenario command runs a fixed allocation program against a fresh
arena and prints the allocation statistics. Memory-bug scenarios print a
MEMORY BUG diagnostic and exit with status 134.

Example:
  heapctl scenario realloc-pressure
  heapctl scenario leak --leaks
  heapctl scenario realloc-pressure --human
  heapctl scenario double-free`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args)
		},
	}
	return cmd
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios()
		},
	}
}

type scenarioResult struct {
	Scenario   string           `json:"scenario"`
	Statistics alloc.Statistics `json:"statistics"`
	Leaks      []alloc.Leak     `json:"leaks,omitempty"`
}

func runScenario(args []string) error {
	s, ok := findScenario(args[0])
	if !ok {
		return fmt.Errorf("unknown scenario %q (run 'heapctl scenarios' for a list)", args[0])
	}

	printVerbose("Running scenario: %s\n", s.name)
	if err := hc.Init(&hc.Options{
		ArenaSize: arenaSize,
		ErrOut:    bugOut,
		Abort:     abortHook,
	}); err != nil {
		return err
	}
	defer hc.Shutdown()

	if err := s.run(); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}

	stats := hc.Statistics()
	if jsonOut {
		result := scenarioResult{Scenario: s.name, Statistics: stats}
		if showLeaks {
			result.Leaks = hc.Leaks()
		}
		return printJSON(result)
	}

	if err := printStatistics(os.Stdout, stats); err != nil {
		return err
	}
	if showLeaks {
		return hc.WriteLeakReport(os.Stdout)
	}
	return nil
}

// printStatistics writes the statistics block, with digit grouping when
// --human is set.
func printStatistics(w io.Writer, s alloc.Statistics) error {
	if quiet {
		return nil
	}
	if !human {
		return alloc.WriteStatistics(w, s)
	}

	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(w, "alloc count: active %10d   total %10d   fail %10d\n",
		s.Active, s.Total, s.Fail); err != nil {
		return err
	}
	_, err := p.Fprintf(w, "alloc size:  active %10d   total %10d   fail %10d\n",
		s.ActiveSize, s.TotalSize, s.FailSize)
	return err
}

func runScenarios() error {
	if jsonOut {
		type entry struct {
			Name    string `json:"name"`
			Summary string `json:"summary"`
			Bug     bool   `json:"memory_bug"`
		}
		out := make([]entry, 0, len(scenarios))
		for _, s := range scenarios {
			out = append(out, entry{Name: s.name, Summary: s.summary, Bug: s.bug})
		}
		return printJSON(out)
	}

	width := 0
	for _, s := range scenarios {
		width = max(width, len(s.name))
	}
	for _, s := range scenarios {
		marker := ""
		if s.bug {
			marker = " (memory bug)"
		}
		printInfo("  %-*s  %s%s\n", width, s.name, s.summary, marker)
	}
	return nil
}
