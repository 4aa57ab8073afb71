// Package logging builds the zap loggers used across the simulator.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/san-kum/cartpole/internal/config"
)

var global atomic.Pointer[zap.Logger]

// New builds a logger writing to console and, when cfg.File is set, to a
// rotated JSON file. A nil console discards console output, which the live
// view needs since it owns the terminal.
func New(cfg config.LoggerConfig, console io.Writer) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	var cores []zapcore.Core
	if console != nil {
		cores = append(cores, zapcore.NewCore(encoder(cfg.Format), zapcore.Lock(zapcore.AddSync(console)), level))
	}
	if cfg.File != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoder("json"), w, level))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("cartpole")
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

// Init installs the process-wide logger returned by L.
func Init(cfg config.LoggerConfig, console io.Writer) *zap.Logger {
	l := New(cfg, console)
	global.Store(l)
	return l
}

// InitStderr is Init with console output on stderr.
func InitStderr(cfg config.LoggerConfig) *zap.Logger {
	return Init(cfg, os.Stderr)
}

// L returns the process-wide logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Sync() {
	_ = L().Sync()
}
