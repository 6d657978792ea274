package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
)

func init() {
	sugar = build(os.Getenv("ENVIRONMENT") == "development")
}

func build(development bool) *zap.SugaredLogger {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Configure rebuilds the global logger once the environment is known.
func Configure(environment string) {
	next := build(environment == "development")
	mu.Lock()
	old := sugar
	sugar = next
	mu.Unlock()
	_ = old.Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

// Fatal logs and exits the process.
func Fatal(format string, v ...interface{}) {
	get().Fatalf(format, v...)
}

// With returns a logger carrying structured fields, e.g. With("conversation", id).
// The returned logger is called directly, so the wrapper's caller skip is undone.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return get().WithOptions(zap.AddCallerSkip(-1)).With(keysAndValues...)
}

func Sync() {
	_ = get().Sync()
}
