// Package logger provides structured logging for pagedb
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with pagedb-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	// Set global log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	// Create logger
	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "pagedb").
		Logger()

	// Add caller information if requested
	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) *zerolog.Event {
	return l.zlog.Fatal().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// DbLogger returns a logger for a given database component (dal,
// transaction, collection, free list).
func (l *Logger) DbLogger(component string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", component).
			Logger(),
	}
}

// LogDbOpen logs opening or creating the backing file.
func (l *Logger) LogDbOpen(path string, created bool) {
	l.zlog.Info().
		Str("event", "db_open").
		Str("path", path).
		Bool("created", created).
		Msg("database opened")
}

// LogCommit logs a write transaction commit with its cost.
func (l *Logger) LogCommit(duration time.Duration, dirtyNodes, deletedPages int) {
	l.zlog.Debug().
		Str("event", "commit").
		Dur("duration_ms", duration).
		Int("dirty_nodes", dirtyNodes).
		Int("deleted_pages", deletedPages).
		Msg("transaction committed")
}

// LogRollback logs a write transaction rollback.
func (l *Logger) LogRollback(pagesReleased int) {
	l.zlog.Debug().
		Str("event", "rollback").
		Int("pages_released", pagesReleased).
		Msg("transaction rolled back")
}

// LogSplit logs a node split during rebalancing.
func (l *Logger) LogSplit(page uint64, indexInParent int) {
	l.zlog.Debug().
		Str("event", "split").
		Uint64("page", page).
		Int("index_in_parent", indexInParent).
		Msg("node split")
}

// LogMerge logs a node merge during rebalancing.
func (l *Logger) LogMerge(leftPage, rightPage uint64) {
	l.zlog.Debug().
		Str("event", "merge").
		Uint64("left_page", leftPage).
		Uint64("right_page", rightPage).
		Msg("nodes merged")
}

// LogCorruption logs a detected on-disk corruption, such as a bad meta
// magic number.
func (l *Logger) LogCorruption(reason string) {
	l.zlog.Error().
		Str("event", "corruption").
		Str("reason", reason).
		Msg("database corruption detected")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Initialize with defaults if not set
		InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return globalLogger
}
