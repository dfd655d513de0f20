package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used across the engine. It is the
// key/value style interface so call sites stay decoupled from the backend.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Infof(format string, args ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Debugf(format string, args ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Warnf(format string, args ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	Fatalf(format string, args ...interface{})
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

type LogLevel string

const (
	Development LogLevel = "development"
	Production  LogLevel = "production"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a Logger backed by zap. Development gets human-readable
// console output at debug level, production gets JSON at info level.
func NewZapLogger(env LogLevel) (Logger, error) {
	var cfg zap.Config
	if env == Production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &zapLogger{sugar: l.Sugar()}, nil
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}
func (l *zapLogger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }
func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}
func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
func (l *zapLogger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *zapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}
func (l *zapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *zapLogger) Sync() error { return l.sugar.Sync() }
