// Package logging configures the structured logger shared by the CLI, the
// repository and the HTTP API.
package logging

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceName is attached to every log entry.
const ServiceName = "todo"

type ctxKey struct{}

// Setup creates a JSON logger writing to out at the given level.
// Unknown levels fall back to info and are reported once at warn level.
func Setup(level string, out io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.WithFields(logrus.Fields{
			"configured_level": level,
			"default_level":    "info",
		}).Warn("invalid log level configured, using default level")
	} else {
		logger.SetLevel(lvl)
	}

	return logger.WithField("service", ServiceName)
}

// Discard returns a logger that drops everything. Used when no logger is wired.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// WithContext stores the logger in the context.
func WithContext(ctx context.Context, log *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or fallback when there is none.
func FromContext(ctx context.Context, fallback *logrus.Entry) *logrus.Entry {
	if log, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && log != nil {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return Discard()
}
