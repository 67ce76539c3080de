package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":         slog.LevelInfo,
		"info":     slog.LevelInfo,
		"DEBUG":    slog.LevelDebug,
		"warning":  slog.LevelWarn,
		"WARN":     slog.LevelWarn,
		"CRITICAL": slog.LevelError,
		"error":    slog.LevelError,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNewWithWriterFiltersBelowLevel(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log, err := NewWithWriter(&buf, "WARNING", false)
	req.NoError(err)

	log.Info("hidden")
	log.Warn("shown", "id", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	req.Len(lines, 1)
	var record map[string]any
	req.NoError(json.Unmarshal([]byte(lines[0]), &record))
	req.Equal("shown", record["msg"])
}

func TestNewWithWriterTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "INFO", true)
	require.NoError(t, err)

	log.Info("hello", "count", 2)
	require.Contains(t, buf.String(), "msg=hello count=2")
}
