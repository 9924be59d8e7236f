// Package log provides the key/value logger used across the engine.
package log

import (
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logger interface. The variadic arguments are key value
// pairs. The key must be a string and the value should have a meaningful
// string representation.
type Logger interface {
	Debug(string, ...any)
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	With(...any) Logger
}

// Zap is a Logger backed by a zap sugared logger.
type Zap struct {
	s *zap.SugaredLogger
}

// New returns a console logger writing to w. Debug messages are only
// emitted when verbose is set.
func New(w io.Writer, verbose bool) *Zap {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)

	return &Zap{s: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Zap {
	return &Zap{s: zap.NewNop().Sugar()}
}

func (l *Zap) Debug(m string, kv ...any) { l.s.Debugw(m, kv...) }
func (l *Zap) Info(m string, kv ...any)  { l.s.Infow(m, kv...) }
func (l *Zap) Warn(m string, kv ...any)  { l.s.Warnw(m, kv...) }
func (l *Zap) Error(m string, kv ...any) { l.s.Errorw(m, kv...) }
func (l *Zap) With(kv ...any) Logger     { return &Zap{s: l.s.With(kv...)} }

// Sync flushes buffered entries.
func (l *Zap) Sync() error { return l.s.Sync() }

// NewRunID returns the identifier attached to every entry of one invocation.
func NewRunID() string {
	return uuid.NewString()
}
