// Package logger wraps zap behind the ILogger interface. Components get a
// namespaced logger; tests use NewNop.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ILogger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warning(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Named returns a child logger whose namespace is extended with name.
	Named(name string) ILogger
}

type logger struct {
	zap *zap.Logger
}

func (l logger) Debug(msg string, fields ...Field)   { l.zap.Debug(msg, fields...) }
func (l logger) Info(msg string, fields ...Field)    { l.zap.Info(msg, fields...) }
func (l logger) Warning(msg string, fields ...Field) { l.zap.Warn(msg, fields...) }
func (l logger) Error(msg string, fields ...Field)   { l.zap.Error(msg, fields...) }

func (l logger) Named(name string) ILogger {
	return logger{zap: l.zap.Named(name)}
}

// New builds a logger for the given namespace. level is one of debug, info,
// warn, error; anything else falls back to info. env "prod" switches to the
// JSON production encoder.
func New(namespace, level, env string) ILogger {
	return logger{zap: newZapLogger(namespace, level, env)}
}

// NewNop returns a logger that discards everything.
func NewNop() ILogger {
	return logger{zap: zap.NewNop()}
}

func newZapLogger(namespace, level, env string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.InitialFields = map[string]interface{}{
		"namespace": namespace,
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
