// Package observability provides the logging and tracing hooks used by the
// decoder. Library code logs through the small Logger interface; binaries
// plug in a log/slog backed implementation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type floatField struct {
	key string
	val float64
}

func (f floatField) Key() string        { return f.key }
func (f floatField) Value() interface{} { return f.val }

type anyField struct {
	key string
	val interface{}
}

func (f anyField) Key() string        { return f.key }
func (f anyField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Int64(key string, value int64) Field     { return int64Field{key, value} }
func Float64(key string, value float64) Field { return floatField{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }
func Any(key string, value interface{}) Field { return anyField{key, value} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// SlogLogger forwards to a *slog.Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l; a nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, attrs(fields)...) }
func (s *SlogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, attrs(fields)...) }
func (s *SlogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, attrs(fields)...) }
func (s *SlogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, attrs(fields)...) }

func (s *SlogLogger) With(fields ...Field) Logger {
	return &SlogLogger{l: s.l.With(attrs(fields)...)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key(), f.Value()))
	}
	return out
}

// Tracer provides tracing hooks around decoding stages.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// LogTracer reports each finished span as one log line with its duration
// and tags. Failed spans are logged at warn level, others at debug.
type LogTracer struct {
	logger Logger
}

// NewLogTracer returns a tracer writing to l; a nil l discards spans.
func NewLogTracer(l Logger) *LogTracer {
	if l == nil {
		l = NopLogger{}
	}
	return &LogTracer{logger: l}
}

func (t *LogTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{logger: t.logger, name: name, start: time.Now()}
}

type logSpan struct {
	logger Logger
	name   string
	start  time.Time
	tags   []Field
	err    error
}

func (s *logSpan) SetTag(key string, value interface{}) { s.tags = append(s.tags, Any(key, value)) }
func (s *logSpan) SetError(err error)                   { s.err = err }

func (s *logSpan) Finish() {
	fields := append([]Field{
		String("span", s.name),
		Float64("seconds", time.Since(s.start).Seconds()),
	}, s.tags...)
	if s.err != nil {
		s.logger.Warn("span failed", append(fields, Error("error", s.err))...)
		return
	}
	s.logger.Debug("span finished", fields...)
}

// Standard metric names reported by the decoder.
const (
	MetricImageTime       = "decode.image.duration"
	MetricGroupCount      = "decode.groups.count"
	MetricShapeCount      = "decode.shapes.count"
	MetricHoldoverCount   = "decode.holdovers.count"
	MetricWarningCount    = "decode.warnings.count"
	MetricDeadHypotheses  = "decode.hypotheses.dead"
	MetricSplitCandidates = "split.candidates.count"
)
