// Package logging provides the pluggable logging abstraction colorist
// threads through its Context (colorctx) rather than reaching for a
// package-level singleton: every component that logs takes a Logger, and
// swapping the implementation (e.g. to Discard in tests) never touches
// call sites.
//
// The interface shape is grounded on pdfcpu's pkg/log.Logger — a small
// capability interface with a settable backing implementation — kept
// deliberately down to two methods (a log line and an error line, each
// tagged with the section of the pipeline that produced it) and backed by
// go.uber.org/zap with gopkg.in/natefinch/lumberjack.v2 doing file
// rotation, the way the ausocean-av command-line tools wire a rotating
// file logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the capability every colorist component logs through.
// section names the pipeline stage (e.g. "transform.Prepare",
// "codec.png"); kv follows zap's SugaredLogger convention of alternating
// key, value pairs.
type Logger interface {
	Log(section string, kv ...any)
	Error(section string, err error, kv ...any)
}

// zapLogger adapts *zap.SugaredLogger to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Log(section string, kv ...any) {
	l.s.Infow(section, kv...)
}

func (l *zapLogger) Error(section string, err error, kv ...any) {
	l.s.Errorw(section, append([]any{"error", err}, kv...)...)
}

// Config controls the default Logger's destination and verbosity (spec.md
// §7 Verbose mode, SPEC_FULL.md §6.1 --logfile/--verbose).
type Config struct {
	// Verbose enables Debug-level output; otherwise the floor is Info.
	Verbose bool
	// FilePath, when non-empty, rotates log output through lumberjack in
	// addition to stderr (SPEC_FULL.md §6.1 --logfile).
	FilePath   string
	MaxSizeMB  int // lumberjack.Logger.MaxSize, default 10
	MaxBackups int // default 3
	MaxAgeDays int // default 28
}

// New builds a zap-backed Logger per cfg. With FilePath empty, output goes
// to stderr only; with FilePath set, output is written to both stderr and
// the rotated file.
func New(cfg Config) Logger {
	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}

	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}

	core := zapcore.NewTee(cores...)
	return &zapLogger{s: zap.New(core).Sugar()}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Discard is a no-op Logger for tests and library callers that want
// silence (spec.md ambient-stack contract: every component accepts a
// Logger, none assumes one exists).
var Discard Logger = discard{}

type discard struct{}

func (discard) Log(string, ...any)          {}
func (discard) Error(string, error, ...any) {}
