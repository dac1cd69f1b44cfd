package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, opts ...LoggerOption) Logger {
	base := []LoggerOption{
		WithLevel(DebugLevel),
		WithFormatter(&TextFormatter{DisableTimestamp: true}),
		WithOutput(NewWriterOutput(buf)),
	}
	return NewLogger(append(base, opts...)...)
}

func TestTextOutputSortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	l.With(Component("paging")).Info("page entered", Uint64("page", 2), Str("b", "x"))

	got := buf.String()
	want := "INFO  page entered b=x component=paging page=2\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	l.SetLevel(WarnLevel)
	l.Info("hidden")
	l.Debug("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("expected info/debug to be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn to pass: %q", buf.String())
	}
}

func TestChildLoggerDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)
	child := parent.With(Str("session", "s1"))
	parent.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}
	if strings.Contains(lines[0], "session") {
		t.Fatalf("parent picked up child field: %q", lines[0])
	}
	if !strings.Contains(lines[1], "session=s1") {
		t.Fatalf("child missing field: %q", lines[1])
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, WithRedactions("master_key"))
	l.Info("generated", Hex("master_key", []byte{0xde, 0xad}))
	if strings.Contains(buf.String(), "dead") {
		t.Fatalf("secret leaked: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "master_key=[REDACTED]") {
		t.Fatalf("expected redaction marker: %q", buf.String())
	}
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, WithSampling(2, 3))
	for i := 0; i < 8; i++ {
		l.Debug("block appended")
	}
	// 2 initial, then every 3rd of the remaining 6: n=2 and n=5.
	if got := strings.Count(buf.String(), "block appended"); got != 4 {
		t.Fatalf("want 4 sampled lines, got %d", got)
	}
}

func TestJSONFormatterWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(InfoLevel), WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.WithError(errors.New("boom")).Error("append failed", Int("page", 3))

	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["msg"] != "append failed" || m["level"] != "ERROR" || m["error"] != "boom" {
		t.Fatalf("unexpected entry: %v", m)
	}
	if m["page"].(float64) != 3 {
		t.Fatalf("page field: %v", m["page"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json", Outputs: []string{"null"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNopLogger()
	l.Error("nothing")
	if l.GetLevel() <= FatalLevel {
		t.Fatalf("nop logger should be above fatal, got %v", l.GetLevel())
	}
}
