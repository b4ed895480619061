package logging

import (
	"go.uber.org/zap"
)

type Logger interface {
	Log(msg string, keyvals ...interface{})
}

type logger struct {
	zap *zap.SugaredLogger
}

// NewLogger returns an error only on hardware error.
func NewLogger() (Logger, error) {
	l, err := zap.NewProduction(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return logger{
		zap: l.Sugar(),
	}, nil
}

func (l logger) Log(msg string, keyvals ...interface{}) {
	l.zap.Infow(msg, keyvals...)
}

// NullLogger discards all messages. Meant for tests.
type NullLogger struct{}

func (NullLogger) Log(string, ...interface{}) {}
