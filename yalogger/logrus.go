package yalogger

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// logrusAdapter implements Logger on top of a logrus.Entry. It is the
// logging backend used throughout this service, adapted from the
// sibling logger package's logrusAdapter but returning a new Logger on
// every With* call instead of mutating the receiver in place, so that
// a logger handed to one goroutine can be safely specialized by
// another without racing.
type logrusAdapter struct {
	entry *logrus.Entry
}

// baseLogrus holds the root *logrus.Logger that every derived Logger
// shares a formatter/level/output with.
type baseLogrus struct {
	logger *logrus.Logger
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case TraceLevel:
		return logrus.TraceLevel
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	case PanicLevel:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// NewBaseLogger builds a logrus-backed BaseLogger. A nil config applies
// sensible defaults (Info level, timestamps disabled, text formatter).
func NewBaseLogger(config *Config) BaseLogger {
	if config == nil {
		config = &Config{
			BaseLoggerType:   Logrus,
			Level:            InfoLevel,
			FullTimestamp:    false,
			TimestampFormat:  "2006-01-02 15:04:05",
			DisableTimestamp: true,
		}
	}

	switch config.BaseLoggerType {
	case Logrus:
	default:
		panic("yalogger: unsupported base logger type, you are a teapot")
	}

	base := logrus.New()
	base.SetLevel(toLogrusLevel(config.Level))
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    config.FullTimestamp,
		TimestampFormat:  config.TimestampFormat,
		DisableTimestamp: config.DisableTimestamp,
	})

	return &baseLogrus{logger: base}
}

// NewLogger derives a fresh Logger from the base logrus logger.
func (b *baseLogrus) NewLogger() Logger {
	return &logrusAdapter{entry: logrus.NewEntry(b.logger)}
}

func (l *logrusAdapter) Info(msg string)                       { l.entry.Info(msg) }
func (l *logrusAdapter) Infof(format string, args ...any)      { l.entry.Infof(format, args...) }
func (l *logrusAdapter) Trace(msg string)                      { l.entry.Trace(msg) }
func (l *logrusAdapter) Tracef(format string, args ...any)     { l.entry.Tracef(format, args...) }
func (l *logrusAdapter) Error(msg string)                       { l.entry.Error(msg) }
func (l *logrusAdapter) Errorf(format string, args ...any)      { l.entry.Errorf(format, args...) }
func (l *logrusAdapter) Warn(msg string)                        { l.entry.Warn(msg) }
func (l *logrusAdapter) Warnf(format string, args ...any)       { l.entry.Warnf(format, args...) }
func (l *logrusAdapter) Debug(msg string)                       { l.entry.Debug(msg) }
func (l *logrusAdapter) Debugf(format string, args ...any)      { l.entry.Debugf(format, args...) }
func (l *logrusAdapter) Fatal(msg string)                       { l.entry.Fatal(msg) }
func (l *logrusAdapter) Fatalf(format string, args ...any)      { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) WithField(key string, value any) Logger {
	return &logrusAdapter{entry: l.entry.WithField(key, value)}
}

func (l *logrusAdapter) WithFields(fields map[string]any) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}

func (l *logrusAdapter) WithRequestStringID(id string) Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeyRequestID, id)}
}

func (l *logrusAdapter) WithRequestUUID(id uuid.UUID) Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeyRequestID, id.String())}
}

func (l *logrusAdapter) WithRequestID(id uint64) Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeyRequestID, id)}
}

func (l *logrusAdapter) WithRandomRequestID() Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeyRequestID, rand.Uint64())}
}

func (l *logrusAdapter) WithSystemRequestID(id uint8) Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeySystemRequestID, id)}
}

func (l *logrusAdapter) WithUserID(userID uint64) Logger {
	return &logrusAdapter{entry: l.entry.WithField(KeyUserID, userID)}
}

func (l *logrusAdapter) GetFields() map[string]any {
	return l.entry.Data
}

func (l *logrusAdapter) GetField(key string) any {
	val, ok := l.entry.Data[key]
	if !ok {
		return nil
	}

	return val
}

func (l *logrusAdapter) DeleteField(key string) {
	delete(l.entry.Data, key)
}
