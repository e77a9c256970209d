// FILE: src/cmd/pulse/flags_test.go
package main

import (
	"io"
	"strings"
	"testing"

	"github.com/lixenwraith/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Run("KnownFlags", func(t *testing.T) {
		fc, err := ParseFlags([]string{"-c", "/tmp/p.toml", "--endpoint", "https://c.example.com/r", "--log-level", "debug", "--stdin", "-q"})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/p.toml", fc.ConfigFile)
		assert.Equal(t, "https://c.example.com/r", fc.Endpoint)
		assert.Equal(t, "debug", fc.LogLevel)
		assert.True(t, fc.ReadStdin)
		assert.True(t, fc.Quiet)
		assert.False(t, fc.Trace)
	})

	t.Run("ConfigPathsPassThrough", func(t *testing.T) {
		fc, err := ParseFlags([]string{"--queue.max_pending=500", "--trace"})
		require.NoError(t, err)
		assert.True(t, fc.Trace)
	})

	t.Run("InvalidLogOutput", func(t *testing.T) {
		_, err := ParseFlags([]string{"--log-output", "syslog"})
		assert.Error(t, err)
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		_, err := ParseFlags([]string{"--log-level", "loud"})
		assert.Error(t, err)
	})

	t.Run("Help", func(t *testing.T) {
		_, err := ParseFlags([]string{"--help"})
		assert.ErrorIs(t, err, pflag.ErrHelp)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"debug", int(log.LevelDebug)},
		{"INFO", int(log.LevelInfo)},
		{"warning", int(log.LevelWarn)},
		{"error", int(log.LevelError)},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLogLevel("trace")
	assert.Error(t, err)
}

func TestCommandRouter(t *testing.T) {
	router := NewCommandRouter()

	handled, err := router.Route(nil)
	assert.False(t, handled)
	assert.NoError(t, err)

	handled, err = router.Route([]string{"--endpoint", "https://c.example.com/r"})
	assert.False(t, handled)
	assert.NoError(t, err)

	handled, err = router.Route([]string{"bogus"})
	assert.True(t, handled)
	assert.Error(t, err)

	handled, err = router.Route([]string{"version"})
	assert.True(t, handled)
	assert.NoError(t, err)
}

func TestPrintSendSummary(t *testing.T) {
	var stdout strings.Builder
	saved := output
	defer func() { output = saved }()
	output = &console{stdout: &stdout, stderr: io.Discard}

	PrintSendSummary(5, map[string]any{
		"discarded": map[string]uint64{"self_report": 1},
		"queue": map[string]any{
			"total_delivered": uint64(3),
			"discarded":       map[string]uint64{"network_error": 1},
		},
	})
	assert.Equal(t, "5 lines read, 3 records delivered\ndropped: network_error=1 self_report=1\n", stdout.String())

	stdout.Reset()
	output.quiet = true
	PrintSendSummary(1, map[string]any{})
	assert.Empty(t, stdout.String())
}
