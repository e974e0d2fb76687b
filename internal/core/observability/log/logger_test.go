package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelText(t *testing.T) {
	var l Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, LevelWarn, l)
	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "warn", string(text))
}

func TestLoggerLevelSharedWithChildren(t *testing.T) {
	l := New(LevelInfo)
	child := l.With(String("component", "test"))

	assert.False(t, child.Enabled(LevelDebug))
	l.SetLevel(LevelDebug)
	assert.True(t, child.Enabled(LevelDebug))
	assert.Equal(t, LevelDebug, child.GetLevel())

	child.Debug("debug message", Int("n", 1), Float64("f", 0.5), Bool("b", true))
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Info("dropped", Any("anything", struct{}{}))
	assert.NotNil(t, Provide())
}

func TestNopSync(t *testing.T) {
	assert.NoError(t, Nop().Sync())
}
