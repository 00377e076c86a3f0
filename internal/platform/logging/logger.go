package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RFC3339Micros is the timestamp layout used for every log entry.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

var (
	once    sync.Once
	base    *zap.Logger
	sugared *zap.SugaredLogger
	initErr error
)

func build() {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(RFC3339Micros))
	}
	cfg.EncoderConfig.LevelKey = "severity"
	cfg.EncoderConfig.EncodeLevel = encodeSeverity
	cfg.EncoderConfig.MessageKey = "message"

	base, initErr = cfg.Build(zap.AddCaller())
	if initErr != nil {
		base = zap.NewNop()
	}
	sugared = base.Sugar()
}

// encodeSeverity writes Cloud Logging severity names instead of zap level names.
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	case zapcore.DPanicLevel:
		enc.AppendString("CRITICAL")
	case zapcore.PanicLevel:
		enc.AppendString("ALERT")
	case zapcore.FatalLevel:
		enc.AppendString("EMERGENCY")
	default:
		enc.AppendString("DEFAULT")
	}
}

// Logger returns the process-wide logger, building it on first use.
func Logger() *zap.Logger {
	once.Do(build)
	return base
}

// Sugar returns a sugared view of Logger.
func Sugar() *zap.SugaredLogger {
	once.Do(build)
	return sugared
}

// Sync flushes buffered entries. Call it once during shutdown.
func Sync() error {
	return Logger().Sync()
}

// Err reports whether building the production logger failed. A no-op logger
// is used in that case.
func Err() error {
	once.Do(build)
	return initErr
}
