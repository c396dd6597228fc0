package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNew_WritesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New("hub", &buf)

	l.Info("ready")

	entry := lastLine(t, &buf)
	assert.Equal(t, "hub", entry["component"])
	assert.Equal(t, "ready", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("hub", &buf).WithFields(map[string]interface{}{"conn": "abc", "user": "User1"})

	l.WithError(errors.New("boom")).Warnf("send failed after %d tries", 1)

	entry := lastLine(t, &buf)
	assert.Equal(t, "abc", entry["conn"])
	assert.Equal(t, "User1", entry["user"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "send failed after 1 tries", entry["message"])
}

func TestLogEvent(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		event     string
		username  string
		detail    string
		wantMsg   string
		wantLevel string
	}{
		{"join", "info", "client_connected", "User1", "", "User1 joined", "info"},
		{"leave without name", "info", "client_disconnected", "", "", "User disconnected", "info"},
		{"chat", "debug", "message_received", "User2", "hi", "User2: hi", "debug"},
		{"parse error", "warn", "parse_error", "User3", "missing type", "parse error: missing type", "warn"},
		{"unknown level", "loud", "send_error", "", "", "send error", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
			var buf bytes.Buffer
			New("hub", &buf).LogEvent(tt.level, tt.event, tt.username, tt.detail)

			entry := lastLine(t, &buf)
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.event, entry["event"])
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Errorf("ignored %s", "value")
	})
}

func TestInitLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	cfg := DefaultLogConfig()
	cfg.LogToFile = true
	cfg.LogToJSON = true
	cfg.FilePath = path
	cfg.Level = "warn"

	InitLogger(cfg)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	NewLogger("test").Warn("written to file")
	assert.FileExists(t, path)
}

func TestInitLogger_BadLevelFallsBackToInfo(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.Level = "chatty"

	InitLogger(cfg)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
