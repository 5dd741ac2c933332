package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error":   LogLevelError,
		" WARN ":  LogLevelWarn,
		"debug":   LogLevelDebug,
		"trace":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLoggerLevels(t *testing.T) {
	l := NewLogger(LogLevelWarn)
	assert.Equal(t, LogLevelWarn, l.GetLevel())

	nop := NewNopLogger()
	assert.NotPanics(t, func() {
		nop.Error("x %d", 1)
		nop.Trace("hidden")
		nop.Sync()
	})
}
