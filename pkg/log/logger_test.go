package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTextOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithFormatter(&TextFormatter{DisableCaller: true}), WithOutput(NewWriterOutput(&buf)))
	l.With(Component("pagelog")).Info("page sealed", Uint64("page", 3))
	out := buf.String()
	if !strings.Contains(out, "page sealed") || !strings.Contains(out, "page=3") || !strings.Contains(out, "component=pagelog") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(WarnLevel), WithOutput(NewWriterOutput(&buf)))
	l.Info("dropped")
	l.Debug("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged below warn, got %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn entry missing: %q", buf.String())
	}
}

func TestJSONFormatterAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)), WithRedactions("token"))
	l.Error("append failed", Err(errors.New("boom")), Str("token", "secret"))
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("json: %v (%q)", err, buf.String())
	}
	if m["error"] != "boom" || m["level"] != "ERROR" {
		t.Fatalf("unexpected entry: %v", m)
	}
	if m["token"] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", m["token"])
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(WithFormatter(&TextFormatter{DisableCaller: true}), WithOutput(NewWriterOutput(&buf)))
	_ = parent.With(Str("child", "yes"))
	parent.Info("from parent")
	if strings.Contains(buf.String(), "child=yes") {
		t.Fatalf("parent picked up child field: %q", buf.String())
	}
}

func TestApplyConfig(t *testing.T) {
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json", Outputs: []string{"null"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := ApplyConfig(&Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSamplingKeepsFirstThenEveryNth(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&TextFormatter{DisableCaller: true}), WithOutput(NewWriterOutput(&buf)), WithSampling(2, 3))
	for i := 0; i < 8; i++ {
		l.Info("batch appended")
	}
	// kept: 0, 1, then 2 and 5
	if n := strings.Count(buf.String(), "batch appended"); n != 4 {
		t.Fatalf("kept %d entries, want 4", n)
	}
}

func TestCallerPointsAtCallSite(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.With(Session("tab")).Warn("cursor rewritten")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("caller not resolved to test file: %q", buf.String())
	}
}

func TestStdLoggerRoutesThroughFacade(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&TextFormatter{DisableCaller: true}), WithOutput(NewWriterOutput(&buf)))
	ToStdLogger(l, WarnLevel).Print("http: TLS handshake error")
	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "TLS handshake error") {
		t.Fatalf("std logger output: %q", buf.String())
	}
}
