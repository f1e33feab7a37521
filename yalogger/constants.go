package yalogger

import (
	"errors"
	"strings"
)

// ErrInvalidLogLevel is returned when Unmarshal/UnmarshalText receives a
// string that does not name one of the known levels.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Level is the logging severity, ordered from least to most severe.
type Level uint8

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	PanicLevel
)

// BaseLoggerType selects which concrete BaseLogger implementation
// NewBaseLogger constructs.
type BaseLoggerType uint8

const (
	Logrus BaseLoggerType = iota
)

// Field keys shared by every BaseLogger implementation's With* helpers.
const (
	KeyRequestID       = "request_id"
	KeySystemRequestID = "system_request_id"
	KeyUserID          = "user_id"
)

// ParseLevel parses a case-insensitive level name (as loaded from
// LOG_LEVEL) into a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	case "panic":
		return PanicLevel, nil
	default:
		return InfoLevel, ErrInvalidLogLevel
	}
}
