// Package logging wraps charmbracelet/log into the small surface the engine
// and its plugins need: leveled output with persistent structured fields.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"

	"github.com/semantic-rs/semantic-rs/internal/protocol"
)

// Options configures a Logger at construction time.
type Options struct {
	Writer       io.Writer
	Level        string // debug, info, warn, error
	HumanReadable bool
	ReportCaller bool
}

// Logger is a charmbracelet/log-backed structured logger with a fixed set of
// persistent fields attached via With.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New builds a Logger from Options, defaulting to info level and output to
// stderr. Output is JSON unless HumanReadable is set.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	formatter := cblog.TextFormatter
	if !opts.HumanReadable {
		formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
		Formatter:       formatter,
	})

	return &Logger{base: base}, nil
}

// With returns a derived Logger carrying the supplied fields on every entry
// it logs, in addition to any fields already attached.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := make([]interface{}, len(l.fields), len(l.fields)+len(fields)*2)
	copy(next, l.fields)
	for _, k := range keys {
		next = append(next, k, fields[k])
	}

	return &Logger{base: l.base, fields: next}
}

// ForPlugin returns a derived Logger tagged with the given plugin's name.
func (l *Logger) ForPlugin(name string) *Logger {
	return l.With(map[string]any{"plugin": name})
}

func (l *Logger) Debug(msg string) { l.base.Debug(msg, l.fields...) }
func (l *Logger) Info(msg string)  { l.base.Info(msg, l.fields...) }
func (l *Logger) Warn(msg string)  { l.base.Warn(msg, l.fields...) }
func (l *Logger) Error(err error, msg string) {
	if err != nil {
		l.base.Error(msg, append(append([]interface{}{}, l.fields...), "error", err)...)
		return
	}
	l.base.Error(msg, l.fields...)
}

// Log dispatches a protocol.LogLevel entry, the shape plugins emit through
// Host.Log.
func (l *Logger) Log(level protocol.LogLevel, message string, extra map[string]any) {
	logger := l
	if len(extra) > 0 {
		logger = l.With(extra)
	}
	switch level {
	case protocol.LogDebug:
		logger.Debug(message)
	case protocol.LogWarn:
		logger.Warn(message)
	case protocol.LogError:
		logger.Error(nil, message)
	default:
		logger.Info(message)
	}
}
