package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Logger is shared by every package. Replace it only in tests.
var Logger *slog.Logger

// level is read from dispatcher workers and handler goroutines.
var level = new(slog.LevelVar)

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

type Options struct {
	Level string
	// Format is "text" (default) or "json".
	Format string
	File   string
}

// Configure rebuilds the package logger. Invalid options are reported but
// whatever parts did apply stay in effect.
func Configure(opts Options) error {
	var errs []error

	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := ParseLogLevel(opts.Level)
		if err != nil {
			errs = append(errs, err)
		} else {
			SetLogLevel(parsed)
		}
	}

	writer := io.Writer(os.Stdout)
	if path := strings.TrimSpace(opts.File); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			writer = io.MultiWriter(os.Stdout, file)
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		Logger = slog.New(slog.NewTextHandler(writer, handlerOpts))
	case "json":
		Logger = slog.New(slog.NewJSONHandler(writer, handlerOpts))
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", opts.Format))
		Logger = slog.New(slog.NewTextHandler(writer, handlerOpts))
	}
	return errors.Join(errs...)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func SetLogLevel(l LogLevel) {
	level.Set(slogLevel(l))
}

func Enabled(l LogLevel) bool {
	return slogLevel(l) >= level.Level()
}

func ParseLogLevel(value string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level %q", value)
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) { log(DEBUG, msg, args...) }
func Info(msg string, args ...any)  { log(INFO, msg, args...) }
func Warn(msg string, args ...any)  { log(WARN, msg, args...) }
func Error(msg string, args ...any) { log(ERROR, msg, args...) }

func log(l LogLevel, msg string, args ...any) {
	if !Enabled(l) {
		return
	}
	Logger.Log(context.Background(), slogLevel(l), msg, args...)
}
