// Package logger provides leveled logging for the API and worker processes
// on top of go-logging, plus an adapter for the cron scheduler.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

const (
	module     = "cinema"
	timeFormat = "2006/01/02 15:04:05"
)

var logger = newLogger(os.Stderr, logging.INFO)

// InitLogger replaces the package logger with one writing to stderr at the
// given level name (DEBUG, INFO, NOTICE, WARNING, ERROR). Unknown names
// fall back to INFO.
func InitLogger(level string) {
	logger = newLogger(os.Stderr, ParseLevel(level))
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer, level logging.Level) {
	logger = newLogger(w, level)
}

// ParseLevel maps a level name to a go-logging level.
func ParseLevel(name string) logging.Level {
	lvl, err := logging.LogLevel(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return logging.INFO
	}
	return lvl
}

func newLogger(w io.Writer, level logging.Level) *logging.Logger {
	l := logging.MustGetLogger(module)
	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend,
		logging.MustStringFormatter(`%{time:`+timeFormat+`} %{level} - %{message}`))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, module)
	l.SetBackend(leveled)
	return l
}

func Debug(args ...any)                   { logger.Debug(args...) }
func Debugf(format string, args ...any)   { logger.Debugf(format, args...) }
func Info(args ...any)                    { logger.Info(args...) }
func Infof(format string, args ...any)    { logger.Infof(format, args...) }
func Warning(args ...any)                 { logger.Warning(args...) }
func Warningf(format string, args ...any) { logger.Warningf(format, args...) }
func Error(args ...any)                   { logger.Error(args...) }
func Errorf(format string, args ...any)   { logger.Errorf(format, args...) }

// CronLogger satisfies cron.Logger so scheduler events and recovered panics
// end up in the same stream as the rest of the worker output.
type CronLogger struct{}

func (CronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s%s", msg, formatKV(keysAndValues))
}

func (CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s: %v%s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
