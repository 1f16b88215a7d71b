// Package logging provides structured component loggers for TINAA.
// Every logger shares a process-wide zap core and carries a session ID
// so that log lines from one server run can be correlated.
package logging

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the process-wide logging core.
type Config struct {
	Level            string
	Encoding         string
	OutputPaths      []string
	ErrorOutputPaths []string
}

// Logger is a component-scoped structured logger.
type Logger struct {
	*zap.SugaredLogger
	component string
}

var (
	mu   sync.Mutex
	base *zap.Logger

	sessionID     string
	sessionIDOnce sync.Once
)

// SessionID returns the process-wide session ID, creating it on first use.
func SessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Init builds the shared logging core from configuration. It should be
// called once at startup, before any component loggers are created.
func Init(cfg Config) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}
	errorOutputPaths := cfg.ErrorOutputPaths
	if len(errorOutputPaths) == 0 {
		errorOutputPaths = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "component",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
		},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	base = logger
	return nil
}

// New creates a logger for a specific component. If Init has not been
// called, a development core writing to stderr is used so early log
// lines are never lost.
func New(component string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		base = fallbackCore()
	}

	sugared := base.Named(component).Sugar().With("session_id", SessionID())
	return &Logger{SugaredLogger: sugared, component: component}
}

// Component returns the component name this logger was created for.
func (l *Logger) Component() string {
	return l.component
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return nil
	}
	return base.Sync()
}

func fallbackCore() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
