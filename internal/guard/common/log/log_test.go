package log

import (
	"errors"
	"testing"
)

type testLogger struct {
	entries []string
	fields  []map[string]any
}

func (l *testLogger) record(level string, f map[string]any, msg string) {
	l.entries = append(l.entries, level+":"+msg)
	l.fields = append(l.fields, f)
}

func (l *testLogger) Debug(f map[string]any, msg string) { l.record("DEBUG", f, msg) }
func (l *testLogger) Info(f map[string]any, msg string)  { l.record("INFO", f, msg) }
func (l *testLogger) Warn(f map[string]any, msg string)  { l.record("WARN", f, msg) }
func (l *testLogger) Error(f map[string]any, msg string) { l.record("ERROR", f, msg) }
func (l *testLogger) Fatal(f map[string]any, msg string) {}
func (l *testLogger) With(map[string]any) Logger         { return l }

func TestActualZapLogger(t *testing.T) {
	Debug(map[string]any{
		"key1": "value1",
		"key2": 42,
		"err":  errors.New("boom"),
	}, "test debug")
	Info(nil, "test info")
	Warn(nil, "test warn")
	Error(nil, "test error")
	GetLogger().With(map[string]any{"page": "https://example.com/"}).Info(nil, "child")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	tlog := &testLogger{}
	SetLogger(tlog)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(map[string]any{"k": 1}, "debug msg")
	Warn(nil, "warn msg")

	expected := []string{
		"INFO:info msg",
		"ERROR:error msg",
		"DEBUG:debug msg",
		"WARN:warn msg",
	}
	if len(tlog.entries) != len(expected) {
		t.Fatalf("expected %d log entries, got %d", len(expected), len(tlog.entries))
	}
	for i, msg := range expected {
		if tlog.entries[i] != msg {
			t.Errorf("expected log[%d] = %q, got %q", i, msg, tlog.entries[i])
		}
	}
	if tlog.fields[2]["k"] != 1 {
		t.Errorf("expected fields to be passed through, got %v", tlog.fields[2])
	}
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	for _, lvl := range []string{"debug", "info", "warn", "error", "INFO"} {
		if err := Configure("dev", lvl); err != nil {
			t.Errorf("Configure(dev, %q) returned error: %v", lvl, err)
		}
		if err := Configure("prod", lvl); err != nil {
			t.Errorf("Configure(prod, %q) returned error: %v", lvl, err)
		}
	}
	if err := Configure("prod", "verbose"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestZapFields(t *testing.T) {
	if got := zapFields(nil); got != nil {
		t.Errorf("zapFields(nil) = %v, want nil", got)
	}
	got := zapFields(map[string]any{"a": 1, "err": errors.New("x")})
	if len(got) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got))
	}
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Debug(nil, "x")
	l.Info(nil, "x")
	l.Warn(nil, "x")
	l.Error(nil, "x")
	l.Fatal(nil, "x")
	if l.With(map[string]any{"a": 1}) == nil {
		t.Fatal("With on noop logger returned nil")
	}
}
