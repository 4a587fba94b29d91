package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestZerologAdapterFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("scaled residual",
		Int("call", 3),
		Float64("value", 0.25),
		String("variant", "optimized"),
		Bool("ok", true),
		Duration("elapsed", 2*time.Second))

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if event["message"] != "scaled residual" {
		t.Errorf("unexpected message %v", event["message"])
	}
	if event["call"] != float64(3) || event["value"] != 0.25 || event["variant"] != "optimized" || event["ok"] != true {
		t.Errorf("fields not encoded as expected: %v", event)
	}
	if _, ok := event["elapsed"]; !ok {
		t.Error("duration field missing")
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New(Options{Level: "error", Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hidden")
	log.Debug("hidden")
	log.Error("shown", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info/debug should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "boom") {
		t.Errorf("error event missing: %q", out)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConsoleFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := New(Options{Format: FormatConsole, NoColor: true, Out: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hello", String("k", "v"))
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console output should not be JSON: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected console output %q", buf.String())
	}
}

func TestWithAddsFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base, _ := New(Options{Out: &buf})
	base.With(String("run_id", "abc")).Info("x")
	if !strings.Contains(buf.String(), `"run_id":"abc"`) {
		t.Errorf("expected run_id field, got %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()
	log := NewNopLogger()
	log.Info("ignored")
	log.Error("ignored", errors.New("x"))
}
