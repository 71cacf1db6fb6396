package core

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type LogLevel = log.Level

const (
	DebugLevel LogLevel = log.DebugLevel
	InfoLevel  LogLevel = log.InfoLevel
	WarnLevel  LogLevel = log.WarnLevel
	ErrorLevel LogLevel = log.ErrorLevel
)

var once sync.Once

var singleton *log.Logger

func getLogger() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "vkcube 🧊 ",
			// the wrappers below add one frame
			CallerOffset: 1,
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// Logger exposes the process logger so components can derive tagged children.
func Logger() *log.Logger {
	return getLogger()
}

func SetLogLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

// ParseLogLevel maps a config string onto a level. Unknown or empty values
// fall back to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}

// TaggedLogger carries fixed key/value pairs on every line it writes.
type TaggedLogger struct {
	l *log.Logger
}

func NewTaggedLogger(keyvals ...interface{}) *TaggedLogger {
	return &TaggedLogger{l: getLogger().With(keyvals...)}
}

func (t *TaggedLogger) Debug(msg string, args ...interface{}) {
	t.l.Debugf(msg, args...)
}

func (t *TaggedLogger) Info(msg string, args ...interface{}) {
	t.l.Infof(msg, args...)
}

func (t *TaggedLogger) Warn(msg string, args ...interface{}) {
	t.l.Warnf(msg, args...)
}

func (t *TaggedLogger) Error(msg string, args ...interface{}) {
	t.l.Errorf(msg, args...)
}
