package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// defaultLevel is used when an unknown level string is provided.
const defaultLevel = zapcore.InfoLevel

// toZapLevel converts a textual level to a zapcore.Level.
func toZapLevel(level string) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultLevel
	}
}

// newConsoleCore builds a console-encoded core writing to ws.
func newConsoleCore(ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(ws), zap.NewAtomicLevelAt(level))
}

// New builds a logger at the given level. Output goes to file when set,
// otherwise to stderr so that stdout stays clean for command output.
// The returned close function releases the log file.
func New(level, file string) (*zap.Logger, func(), error) {
	ws := zapcore.AddSync(os.Stderr)
	closer := func() {}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		ws = zapcore.AddSync(f)
		closer = func() { _ = f.Close() }
	}

	log := zap.New(newConsoleCore(ws, toZapLevel(level)))
	return log, func() {
		_ = log.Sync()
		closer()
	}, nil
}
