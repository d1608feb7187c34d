package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewNoop(t *testing.T) {
	l := NewNoop()
	require.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Debugf("debug %d", 1)
		l.Infof("info %s", "x")
		l.Warnf("warn")
		l.Errorf("error %v", nil)
	})
}

func TestNewZap(t *testing.T) {
	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		l, sync, err := NewZap(lvl)
		require.NoError(t, err, "level %s", lvl)
		require.NotNil(t, l)
		l.Debugf("streamlines read: %d", 10)
		sync()
	}
}

func TestLevel_ZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, LevelDebug.zapLevel())
	assert.Equal(t, zapcore.WarnLevel, LevelWarn.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, LevelError.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LevelInfo.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, Level("bogus").zapLevel())
}
