package log

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// Logger is a thin wrapper around zap.Logger so call sites don't need to
// import zap themselves.
type Logger struct {
	l *zap.Logger
}

var defaultLogger *Logger

// field helpers re-exported for call sites
var (
	String     = zap.String
	Int        = zap.Int
	Int32      = zap.Int32
	Float64    = zap.Float64
	Bool       = zap.Bool
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
)

type Config struct {
	Level      string // zap level value (debug, info, warn, error)
	Format     string // text or json
	FilterRule string // optional zapfilter rule set, e.g. "collector:debug *:info"
}

// Init builds the process-wide default logger. Called once from the root
// command before any subcommand runs.
func Init(cfg Config) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	if cfg.FilterRule != "" {
		rules, rErr := zapfilter.ParseRules(cfg.FilterRule)
		if rErr != nil {
			return nil, fmt.Errorf("invalid log filter %q: %w", cfg.FilterRule, rErr)
		}
		core = zapfilter.NewFilteringCore(core, rules)
	}
	defaultLogger = &Logger{l: zap.New(core)}
	return defaultLogger, nil
}

// Default returns the process logger, falling back to a development logger
// when Init was not called (tests).
func Default() *Logger {
	if defaultLogger == nil {
		zl, _ := zap.NewDevelopment()
		defaultLogger = &Logger{l: zl}
	}
	return defaultLogger
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name)}
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l: l.l.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.l.Error(msg, fields...) }

func (l *Logger) Sync() error { return l.l.Sync() }

// package-level shortcuts on the default logger
func Debug(msg string, fields ...zap.Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Default().Error(msg, fields...) }
