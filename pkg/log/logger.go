package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if l < DebugLevel || l > FatalLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// Well-known field keys.
const (
	SessionKey   = "session"
	ComponentKey = "component"
)

// Entry is a single formatted log record.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
	Caller    string
}

// Logger is the leveled, structured logger passed through sr components.
// Loggers are immutable; With returns a child carrying extra fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithComponent(component string) Logger

	Level() Level
}

// Formatter renders an Entry to bytes.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output receives formatted entries.
type Output interface {
	Write(entry *Entry, formattedEntry []byte) error
	Close() error
}

// LoggerOption configures NewLogger.
type LoggerOption func(*pipeline)

// pipeline is shared by a logger and all of its children.
type pipeline struct {
	level      Level
	formatter  Formatter
	outputs    []Output
	redactions []string
	sampleInit int
	sampleThen int
}

// slogLogger implements Logger on top of a slog.Logger whose handler feeds
// the pipeline.
type slogLogger struct {
	p *pipeline
	s *slog.Logger
}

// NewLogger creates a logger. Defaults: info level, JSON to stderr.
func NewLogger(options ...LoggerOption) Logger {
	p := &pipeline{level: InfoLevel, formatter: &JSONFormatter{}}
	for _, opt := range options {
		opt(p)
	}
	if len(p.outputs) == 0 {
		p.outputs = []Output{NewConsoleOutput()}
	}
	return &slogLogger{p: p, s: slog.New(newBridgeHandler(p))}
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(p *pipeline) { p.level = level }
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(p *pipeline) { p.formatter = formatter }
}

// WithOutput adds an output.
func WithOutput(output Output) LoggerOption {
	return func(p *pipeline) { p.outputs = append(p.outputs, output) }
}

// WithRedactions replaces the values of the given field keys with [REDACTED].
func WithRedactions(keys ...string) LoggerOption {
	return func(p *pipeline) { p.redactions = append(p.redactions, keys...) }
}

// WithSampling logs the first `initial` occurrences of a message and then
// every `thereafter`-th one.
func WithSampling(initial, thereafter int) LoggerOption {
	return func(p *pipeline) { p.sampleInit, p.sampleThen = initial, thereafter }
}

func (l *slogLogger) log(level Level, msg string, fields []Field) {
	if level < l.p.level {
		return
	}
	// Skip runtime.Callers, log and the exported level method.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), toSlogLevel(level), msg, pcs[0])
	r.AddAttrs(attrs(fields)...)
	_ = l.s.Handler().Handle(context.Background(), r)
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *slogLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &slogLogger{p: l.p, s: slog.New(l.s.Handler().WithAttrs(attrs(fields)))}
}

func (l *slogLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *slogLogger) Level() Level { return l.p.level }

func attrs(fields []Field) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}
