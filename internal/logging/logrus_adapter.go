package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// FormatJSON selects logrus' JSON formatter; any other format is text.
const FormatJSON = "json"

// NewLogrus builds a logrus logger at level ("debug", "info", "warn",
// "error") writing format to out. An unknown level falls back to info and a
// nil out keeps stderr.
func NewLogrus(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.EqualFold(format, FormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// LogrusAdapter implements Logger on top of a logrus entry. Derived loggers
// share the parent's logrus.Logger and extend its entry.
type LogrusAdapter struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogrusAdapter returns a Logger at level in format, writing to stderr.
func NewLogrusAdapter(level, format string) Logger {
	return NewLogrusAdapterFromLogger(NewLogrus(level, format, nil))
}

// NewLogrusAdapterFromLogger wraps an existing logrus.Logger.
func NewLogrusAdapterFromLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusAdapter{logger: logger, entry: logrus.NewEntry(logger)}
}

// SetOutput redirects the underlying logrus output.
func (l *LogrusAdapter) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *LogrusAdapter) log(level logrus.Level, msg string, fields []Field) {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(toLogrusFields(fields))
	}
	entry.Log(level, msg)
}

func (l *LogrusAdapter) derive(entry *logrus.Entry) Logger {
	return &LogrusAdapter{logger: l.logger, entry: entry}
}

// Debug implements Logger.
func (l *LogrusAdapter) Debug(msg string, fields ...Field) { l.log(logrus.DebugLevel, msg, fields) }

// Info implements Logger.
func (l *LogrusAdapter) Info(msg string, fields ...Field) { l.log(logrus.InfoLevel, msg, fields) }

// Warn implements Logger.
func (l *LogrusAdapter) Warn(msg string, fields ...Field) { l.log(logrus.WarnLevel, msg, fields) }

// Error implements Logger.
func (l *LogrusAdapter) Error(msg string, fields ...Field) { l.log(logrus.ErrorLevel, msg, fields) }

// WithError implements Logger.
func (l *LogrusAdapter) WithError(err error) Logger { return l.derive(l.entry.WithError(err)) }

// WithField implements Logger.
func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return l.derive(l.entry.WithField(key, value))
}

// WithFields implements Logger.
func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return l.derive(l.entry.WithFields(toLogrusFields(fields)))
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
