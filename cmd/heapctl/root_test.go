package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/heapcheck/internal/logger"
)

func TestDebugLogFile(t *testing.T) {
	resetFlags()
	orig := logger.L
	t.Cleanup(func() { logger.L = orig })

	logFile = filepath.Join(t.TempDir(), "logs", "heapctl.log")
	if err := initLogging(); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}

	if _, err := captureOutput(t, func() error {
		return runScenario([]string{"realloc-pressure"})
	}); err != nil {
		t.Fatalf("runScenario() error = %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"alloc: split", "alloc: coalesce down"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestLoggingOffByDefault(t *testing.T) {
	resetFlags()
	orig := logger.L
	t.Cleanup(func() { logger.L = orig })

	if err := initLogging(); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}
	if logger.L != orig {
		t.Error("logger replaced without --debug or --log-file")
	}
}
