// Package logging provides structured logging on top of logrus with trace and
// user correlation pulled from the request context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger bound to a service name.
type Logger struct {
	*logrus.Logger
	service string
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// New creates a logger. format is "json" or "text"; level is any logrus level
// name and falls back to info.
func New(service, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.AddHook(sanitizeHook{})

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	return &Logger{Logger: l, service: service}
}

// NewFromEnv builds a logger from LOG_LEVEL and LOG_FORMAT.
func NewFromEnv(service string) *Logger {
	return New(service, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Default returns a process logger for code paths without an injected one.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = NewFromEnv("fontsreviewer")
	})
	return defaultLogger
}

// SetOutput redirects log output, mostly for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// Service returns the service name attached to every entry.
func (l *Logger) Service() string {
	return l.service
}

func (l *Logger) base() *logrus.Entry {
	return l.Logger.WithField("service", l.service)
}

// WithContext returns an entry carrying trace_id, user_id and role from ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.base()
	if ctx == nil {
		return entry
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	if role := GetRole(ctx); role != "" {
		entry = entry.WithField("role", role)
	}
	return entry
}

// WithFields returns an entry with the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.base().WithFields(logrus.Fields(fields))
}

// WithError returns an entry with the error attached.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.base().WithError(err)
}

// LogRequest logs a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		entry.Error("HTTP request")
	case status >= 400:
		entry.Warn("HTTP request")
	default:
		entry.Info("HTTP request")
	}
}

// LogSecurityEvent logs an auth or abuse related event at warn level.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).
		WithField("security_event", event).
		WithFields(logrus.Fields(fields)).
		Warn("Security event")
}
