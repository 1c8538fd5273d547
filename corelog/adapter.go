// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package corelog assembles the zerolog backends used by all settled
// subsystems. Each subsystem gets a child logger tagged with its unit
// name; output goes to the console, a rolling file, or both.
package corelog

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Disabled is a no-op logger, the default for library packages until
	// the host application injects a real one via their UseLogger.
	Disabled zerolog.Logger

	DefaultLevel   = zerolog.InfoLevel
	DefaultLogFile = "settled.log"
)

func init() {
	Disabled = zerolog.Nop()
}

// Config for logging.
type Config struct {
	// DisableConsoleLog turns off the stderr/stdout writer entirely.
	DisableConsoleLog bool `yaml:"disable_console_log"`
	// LogsAsJson switches console output from pretty to raw JSON lines.
	LogsAsJson bool `yaml:"logs_as_json"`
	// FileLoggingEnabled adds a size-rotated log file writer;
	// the fields below are ignored when false.
	FileLoggingEnabled bool `yaml:"file_logging_enabled"`
	// Directory holds the rotated log files.
	Directory string `yaml:"directory"`
	// Filename of the active log file inside Directory.
	Filename string `yaml:"filename"`
	// MaxSize in MB of the log file before it is rolled.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is the number of rolled files to keep.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge in days before a rolled file is pruned.
	MaxAge int `yaml:"max_age"`
}

func (Config) Default() Config {
	return Config{
		Directory:  "settlement",
		Filename:   DefaultLogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// ParseLevel maps a config string to a zerolog level, falling back to
// the default level for unknown values.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return DefaultLevel
	}
	return level
}

// New creates the root logger for one subsystem unit.
func New(unit string, logLevel zerolog.Level, config Config) zerolog.Logger {
	mw := io.MultiWriter(writers(unit, config)...)
	zerolog.SetGlobalLevel(DefaultLevel)

	logger := zerolog.New(mw).
		Level(logLevel).
		With().
		Str("app", "settled").
		Timestamp().
		Logger()

	logger.Trace().
		Bool("fileLogging", config.FileLoggingEnabled).
		Bool("jsonLogOutput", config.LogsAsJson).
		Str("logDirectory", config.Directory).
		Str("fileName", config.Filename).
		Msg("logging configured")

	return logger
}

func writers(unit string, config Config) []io.Writer {
	var out []io.Writer
	switch {
	case config.DisableConsoleLog:
	case config.LogsAsJson:
		out = append(out, os.Stdout)
	default:
		console := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}
		console.TimeFormat = time.RFC3339
		console.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s| %s |", i, unit))
		}
		console.FormatMessage = func(i interface{}) string {
			return fmt.Sprintf("%-6s  ", i)
		}
		out = append(out, console)
	}

	if config.FileLoggingEnabled {
		out = append(out, rollingFile(config))
	}
	return out
}

func rollingFile(config Config) io.Writer {
	if err := os.MkdirAll(config.Directory, 0744); err != nil {
		log.Error().Err(err).Str("path", config.Directory).Msg("can't create log directory")
		return nil
	}

	return &lumberjack.Logger{
		Filename:   path.Join(config.Directory, config.Filename),
		MaxBackups: config.MaxBackups, // files
		MaxSize:    config.MaxSize,    // megabytes
		MaxAge:     config.MaxAge,     // days
	}
}
