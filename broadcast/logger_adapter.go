package broadcast

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/rise-and-shine/voiceout/observability/logger"
)

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

// loggerAdapter adapts the service logger to watermill.LoggerAdapter.
type loggerAdapter struct {
	base logger.Logger
}

func newLoggerAdapter(log logger.Logger) *loggerAdapter {
	return &loggerAdapter{base: log}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	log := l.withFields(fields)
	if err != nil {
		log = log.With("error", err.Error())
	}
	log.Error(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	// watermill is chatty at info level
	l.withFields(fields).Debug(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debug(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debug(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{base: l.withFields(fields)}
}

func (l *loggerAdapter) withFields(fields watermill.LogFields) logger.Logger {
	log := l.base
	for k, v := range fields {
		log = log.With(k, v)
	}
	return log
}
