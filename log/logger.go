package log

import (
	"io/ioutil"
	L "log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger handles logging.
type Logger interface {
	Debugf(tmpl string, args ...interface{})
	Errorf(tmpl string, args ...interface{})
	Infof(tmpl string, args ...interface{})
	Warnf(tmpl string, args ...interface{})
}

// Level selects the minimum level emitted by NewZap.
type Level string

// Available Levels:
const (
	LevelDebug Level = `debug`
	LevelInfo  Level = `info`
	LevelWarn  Level = `warn`
	LevelError Level = `error`
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewZap returns a Logger backed by a zap SugaredLogger writing console output to stderr.
// The returned sync func flushes buffered entries and should be deferred by the caller.
func NewZap(level Level) (Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.Encoding = `console`
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = level != LevelDebug
	cfg.OutputPaths = []string{`stderr`}
	cfg.ErrorOutputPaths = []string{`stderr`}
	z, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	s := z.Sugar().Named(`tckedit`)
	return s, func() { _ = s.Sync() }, nil
}

// NewNoop returns a NoopLogger.
func NewNoop() Logger {
	return &noopLogger{
		l: L.New(ioutil.Discard, "[TCKEDIT] ", 0),
	}
}

type noopLogger struct {
	l *L.Logger
}

func (n *noopLogger) Debugf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Errorf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Infof(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}

func (n *noopLogger) Warnf(tmpl string, args ...interface{}) {
	n.l.Printf(tmpl, args...)
}
