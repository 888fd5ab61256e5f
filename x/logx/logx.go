// Package logx is a small leveled logger over the standard log package.
// It is the diagnostic sink for both host and firmware builds.
package logx

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

type Level int

const (
	LogPrefix     = "[plantsense] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel Level = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelNames = map[string]Level{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"warn":    WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

type Logger struct {
	level Level
	*log.Logger
}

var std = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levelNames[s]
	if !ok {
		return 0, errors.New("wrong log level. " + HelpLevels)
	}
	return l, nil
}

func SetLevel(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	std.level = l
	return nil
}

// Init redirects output and sets the level. An unknown level keeps the current one.
func Init(out io.Writer, level string) error {
	std.SetOutput(out)
	return SetLevel(level)
}

// SetFlags controls the timestamp prefix (firmware builds have no wall clock).
func SetFlags(flags int) { std.SetFlags(flags) }

func Enabled(l Level) bool { return std.level >= l }

func Error(format string, v ...any) {
	if std.level >= ErrorLevel {
		std.Println(fmt.Sprintf(ErrorPrefix+format, v...))
	}
}

func Warning(format string, v ...any) {
	if std.level >= WarningLevel {
		std.Println(fmt.Sprintf(WarningPrefix+format, v...))
	}
}

func Info(format string, v ...any) {
	if std.level >= InfoLevel {
		std.Println(fmt.Sprintf(InfoPrefix+format, v...))
	}
}

func Debug(format string, v ...any) {
	if std.level >= DebugLevel {
		std.Println(fmt.Sprintf(DebugPrefix+format, v...))
	}
}
