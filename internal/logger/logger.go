// Package logger provides leveled structured logging.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
}

// Init initializes the default logger with the specified level and format.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

// SetOutput redirects the default logger's output. Test helper.
func SetOutput(w io.Writer) {
	defaultLogger.logger.SetOutput(w)
}

func logAt(level Level, prefix, format string, args ...interface{}) {
	if defaultLogger.level > level {
		return
	}
	msg := fmt.Sprintf(prefix+format, args...)
	_ = defaultLogger.logger.Output(3, msg)
}

func Debug(format string, args ...interface{}) {
	logAt(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...interface{}) {
	logAt(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...interface{}) {
	logAt(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...interface{}) {
	logAt(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	_ = defaultLogger.logger.Output(2, msg)
	os.Exit(1)
}
