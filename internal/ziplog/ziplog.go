// Package ziplog implements workspace.Logger on top of zap.
package ziplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsworkspace/wsmanager/internal/workspace"
)

type logger struct {
	z *zap.Logger
}

// New wraps z as a workspace.Logger.
func New(z *zap.Logger) workspace.Logger {
	return &logger{z: z}
}

// NewDevelopment builds a human-readable logger for CLI use, debug-enabled
// when debug is true.
func NewDevelopment(debug bool) (workspace.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

func (l *logger) Error(msg string, fields ...workspace.Field) {
	l.z.Error(msg, toZapFields(fields)...)
}

func (l *logger) Debugf(format string, args ...any) {
	l.z.Sugar().Debugf(format, args...)
}

func toZapFields(fields []workspace.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
