package otc

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogLevel controls how much the library logs. Levels are ordered; a
// message is emitted when its level is at or below the current level.
type LogLevel int

const (
	LogNone LogLevel = iota // no messages at all
	LogErr                  // error messages
	LogWarn                 // warnings
	LogInfo                 // informational messages
	LogDbg                  // debug messages
	LogSpew                 // very noisy debug messages
)

// LogCallback receives every message the library emits, regardless of
// which backend would otherwise print it.
type LogCallback func(level LogLevel, message string)

var (
	logger   = newLogger()
	logLevel int32 = int32(LogWarn)
	logCB    atomic.Value // LogCallback
)

func newLogger() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(os.Stderr)
	lg.SetLevel(logrus.TraceLevel)
	lg.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return lg
}

var logrusLevels = map[LogLevel]logrus.Level{
	LogErr:  logrus.ErrorLevel,
	LogWarn: logrus.WarnLevel,
	LogInfo: logrus.InfoLevel,
	LogDbg:  logrus.DebugLevel,
	LogSpew: logrus.TraceLevel,
}

// LogLevelSet sets the process-wide log level.
func LogLevelSet(level LogLevel) error {
	if level < LogNone || level > LogSpew {
		return ErrArg
	}
	atomic.StoreInt32(&logLevel, int32(level))
	return nil
}

// LogLevelGet returns the process-wide log level.
func LogLevelGet() LogLevel {
	return LogLevel(atomic.LoadInt32(&logLevel))
}

// LogCallbackSet installs cb as the process-wide log sink. Installing is
// atomic with respect to concurrent logging calls.
func LogCallbackSet(cb LogCallback) error {
	if cb == nil {
		return ErrArg
	}
	logCB.Store(cb)
	return nil
}

// LogCallbackClear restores the default stderr output.
func LogCallbackClear() {
	logCB.Store(LogCallback(nil))
}

// Log emits one message through the process-wide facility. Drivers and
// transport backends log through this.
func Log(level LogLevel, format string, args ...interface{}) {
	logMsg(level, format, args...)
}

func logMsg(level LogLevel, format string, args ...interface{}) {
	if level > LogLevelGet() {
		return
	}
	if cb, ok := logCB.Load().(LogCallback); ok && cb != nil {
		cb(level, fmt.Sprintf(format, args...))
		return
	}
	logger.Logf(logrusLevels[level], format, args...)
}

func logErr(format string, args ...interface{})  { logMsg(LogErr, format, args...) }
func logWarn(format string, args ...interface{}) { logMsg(LogWarn, format, args...) }
func logInfo(format string, args ...interface{}) { logMsg(LogInfo, format, args...) }
func logDbg(format string, args ...interface{})  { logMsg(LogDbg, format, args...) }
func logSpew(format string, args ...interface{}) { logMsg(LogSpew, format, args...) }
