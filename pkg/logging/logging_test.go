package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parley.log")
	l, err := Open(path)
	require.NoError(t, err)

	l.Info("remote", "listener started", map[string]any{"addr": "127.0.0.1:8080"})
	l.Warn("session", "unknown message target", map[string]any{"message_id": 42})
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	require.Equal(t, LevelInfo, events[0].Level)
	require.Equal(t, "remote", events[0].Component)
	require.Equal(t, "listener started", events[0].Message)
	require.Equal(t, "127.0.0.1:8080", events[0].Details["addr"])
	require.Equal(t, LevelWarn, events[1].Level)
}

func TestLoggerMinLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.log")
	l, err := Open(path)
	require.NoError(t, err)

	l.Debug("tui", "dropped below min level", nil)
	l.SetMinLevel(LevelDebug)
	l.Debug("tui", "written at debug", nil)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "dropped below min level")
	require.Contains(t, string(data), "written at debug")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("tui", "no-op", nil)
	l.Warn("tui", "no-op", nil)
	require.NoError(t, l.Close())
}
