// Package logging provides the leveled package logger used across volview.
// Messages go to stderr through the standard log package unless a log file
// is configured, in which case they are written to a rotating file.
package logging

import (
	"fmt"
	"log"
	"strings"

	"github.com/natefinch/lumberjack"
)

type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

var (
	mode ModeFlag = InfoMode

	// rotating is non-nil once SetLogger has been called with a log file.
	rotating *lumberjack.Logger
)

// SetLogMode sets the severity required for a log message to be printed.
// SetLogMode(WarningMode) keeps Warningf and Errorf output only.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

// Mode returns the current severity threshold.
func Mode() ModeFlag {
	return mode
}

// ParseMode converts a level name ("debug", "info", "warning", "error",
// "silent") into a ModeFlag.
func ParseMode(level string) (ModeFlag, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugMode, nil
	case "", "info":
		return InfoMode, nil
	case "warn", "warning":
		return WarningMode, nil
	case "error":
		return ErrorMode, nil
	case "silent", "off":
		return SilentMode, nil
	}
	return InfoMode, fmt.Errorf("unknown log level %q", level)
}

// LogConfig selects where log output is written.
type LogConfig struct {
	Logfile string `yaml:"file"`
	MaxSize int    `yaml:"maxSize"` // megabytes
	MaxAge  int    `yaml:"maxAge"`  // days
	Level   string `yaml:"level"`
}

// SetLogger applies the level and, if a log file is named, routes output to
// a rotating log file.
func (c *LogConfig) SetLogger() error {
	if c == nil {
		return nil
	}
	m, err := ParseMode(c.Level)
	if err != nil {
		return err
	}
	SetLogMode(m)
	if c.Logfile == "" {
		return nil
	}
	Infof("Sending log messages to: %s", c.Logfile)
	rotating = &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(rotating)
	return nil
}

// Shutdown closes the rotating log file, if any.
func Shutdown() {
	if rotating != nil {
		rotating.Close()
	}
}

func write(level, format string, args ...interface{}) {
	log.Printf(" "+level+" "+format, args...)
}

func Debugf(format string, args ...interface{}) {
	if mode <= DebugMode {
		write("DEBUG", format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if mode <= InfoMode {
		write("INFO", format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if mode <= WarningMode {
		write("WARNING", format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if mode <= ErrorMode {
		write("ERROR", format, args...)
	}
}
