package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: false, Writer: &buf}))
	Info("hidden", "k", 1)
	require.Empty(t, buf.String())
}

func TestInitTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug}))
	t.Cleanup(func() { L = Discard() })

	Debug("carve", "size", 80)
	require.Contains(t, buf.String(), "msg=carve")
	require.Contains(t, buf.String(), "size=80")
}

func TestNewJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "heap.log")
	l, err := New(Options{Enabled: true, Path: path, JSON: true})
	require.NoError(t, err)
	l.Warn("arena exhausted", "need", 4096)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"arena exhausted"`)
	require.Contains(t, string(data), `"need":4096`)
}

func TestAllocTrace(t *testing.T) {
	t.Setenv(EnvAllocTrace, "")
	require.Nil(t, AllocTrace())
	t.Setenv(EnvAllocTrace, "1")
	require.NotNil(t, AllocTrace())
}
