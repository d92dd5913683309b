// Package logging builds the zap loggers used by the client and the server.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/seabattle/servercheck/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing JSON to the rotated log file. When console is
// true it also writes human-readable lines to stderr. The TUI passes false:
// the terminal belongs to the screen.
func New(cfg config.LogConfig, console bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var cores []zapcore.Core
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, fileCore(zapcore.AddSync(rotator), level))
	}
	if console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// NewWriter returns a JSON logger on w. Used by tests and by the one-shot
// probe command.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	return zap.New(fileCore(zapcore.AddSync(w), level))
}

func fileCore(w zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, level)
}
