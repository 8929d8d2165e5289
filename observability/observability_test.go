package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestLogTracer(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tracer := NewLogTracer(NewSlogLogger(base))

	_, span := tracer.StartSpan(context.Background(), "analyse.image")
	span.SetTag("image", "p1")
	span.SetTag(MetricGroupCount, 4)
	span.Finish()

	_, failed := tracer.StartSpan(context.Background(), "analyse.image")
	failed.SetError(errors.New("boom"))
	failed.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %q", buf.String())
	}
	for _, want := range []string{"level=DEBUG", "span=analyse.image", "image=p1", "decode.groups.count=4", "seconds="} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("span line %q missing %q", lines[0], want)
		}
	}
	for _, want := range []string{"level=WARN", "error=boom"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("failed span line %q missing %q", lines[1], want)
		}
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var log Logger = NewSlogLogger(base)

	log.With(String("image", "p1")).Warn("no outcomes", Int("shape", 3), Float64("score", 0.5), Error("err", errors.New("boom")))
	out := buf.String()
	for _, want := range []string{"level=WARN", "msg=\"no outcomes\"", "image=p1", "shape=3", "score=0.5", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %q", out, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	var log Logger = NopLogger{}
	log.With(Int64("n", 1)).Info("ignored")
}
