package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundtrace/pkg/config"
)

// captureStderr runs fn with os.Stderr redirected and returns what was written
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	require.NoError(t, w.Close())
	os.Stderr = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

// New 는 전역 레벨을 바꾸므로 테스트 후 원복
func resetGlobalLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
}

func decode(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(line)), &entry), line)
	return entry
}

func TestNew_JSONGoesToStderr(t *testing.T) {
	resetGlobalLevel(t)

	var out string
	stdout := captureStdout(t, func() {
		out = captureStderr(t, func() {
			l := New(&config.Config{Env: "staging", LogLevel: "info", LogFormat: "json"})
			l.WithComponent("s0_source").Info("loaded")
			l.Debug("hidden")
		})
	})
	assert.Empty(t, stdout)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	entry := decode(t, lines[0])
	assert.Equal(t, "fundtrace", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.Equal(t, "s0_source", entry["component"])
	assert.Equal(t, "loaded", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_ConsoleFormat(t *testing.T) {
	resetGlobalLevel(t)

	for _, format := range []string{"console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			out := captureStderr(t, func() {
				New(&config.Config{Env: "development", LogLevel: "debug", LogFormat: format}).Debug("fx resolved")
			})
			assert.Contains(t, out, "fx resolved")
			assert.False(t, json.Valid([]byte(strings.TrimSpace(out))), "console output should not be JSON")
		})
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"WARNING", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"", []string{"info", "warn", "error"}},
		{"verbose", []string{"info", "warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				got = append(got, decode(t, line)["level"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithComponentAndRun(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, "info")

	base.WithComponent("brain").WithRun("run-42").Info("stage done")
	entry := decode(t, buf.String())
	assert.Equal(t, "brain", entry["component"])
	assert.Equal(t, "run-42", entry["run_id"])

	// 파생 logger 는 원본에 필드를 남기지 않음
	buf.Reset()
	base.Info("plain")
	entry = decode(t, buf.String())
	assert.NotContains(t, entry, "component")
	assert.NotContains(t, entry, "run_id")
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info").
		WithField("table", "funds_daily").
		WithFields(map[string]interface{}{"rows": 12, "stage": "S0"}).
		WithError(errors.New("relation does not exist")).
		Error("load failed")

	entry := decode(t, buf.String())
	assert.Equal(t, "funds_daily", entry["table"])
	assert.Equal(t, float64(12), entry["rows"])
	assert.Equal(t, "S0", entry["stage"])
	assert.Equal(t, "relation does not exist", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestNop(t *testing.T) {
	out := captureStderr(t, func() {
		l := Nop().WithComponent("mart").WithRun("r").WithField("k", 1).WithError(errors.New("x"))
		l.Debug("d")
		l.Info("i")
		l.Warn("w")
		l.Error("e")
	})
	assert.Empty(t, out)
}
