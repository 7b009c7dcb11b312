package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the backend's root logger. Subsystems never share the root;
// they get named children via Component so every line carries its origin.
type Logger struct {
	*zap.Logger
}

// Config selects the level and output shape. Development flips the encoder
// from JSON lines to a colored console and enables stacktraces.
type Config struct {
	Level       string
	Development bool
	OutputPaths []string
}

// New builds a logger from cfg. Level accepts zap's textual names
// ("debug", "info", "warn", "error"); an unknown name is an error rather
// than a silent default.
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          "json",
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.MessageKey = "message"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	base, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: base}, nil
}

// NewDefault returns an info-level JSON logger on stdout, falling back to
// a no-op logger so callers can log unconditionally during startup.
func NewDefault() *Logger {
	logger, err := New(Config{Level: "info"})
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return logger
}

// NewDevelopment returns a debug-level console logger with the same no-op
// fallback as NewDefault.
func NewDevelopment() *Logger {
	logger, err := New(Config{Level: "debug", Development: true})
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return logger
}

// Component returns a named child for a subsystem. Names nest, so handing
// a component logger onward keeps the full path in the logger field.
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}
