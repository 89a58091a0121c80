// Package logger provides the node-wide structured logging facade.
// Call sites log one event name plus a flat field map; output is JSON lines
// so operators can grep and ship them without a parsing step.
package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger replaces the backing logger (tests, alternate sinks).
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		log = l
	}
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Info(msg string)  { current().Info(msg) }
func Warn(msg string)  { current().Warn(msg) }
func Error(msg string) { current().Error(msg) }

// InfoJ logs an event with structured fields, keys in stable order.
func InfoJ(event string, fields map[string]any) {
	current().Info(event, toZap(fields)...)
}

// ErrorJ logs an error-severity event with structured fields.
func ErrorJ(event string, fields map[string]any) {
	current().Error(event, toZap(fields)...)
}

func toZap(fields map[string]any) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
