package telemetry_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petasbytes/lotus/internal/telemetry"
)

func TestEmit_Disabled_NoFile(t *testing.T) {
	dir := t.TempDir()
	telemetry.Configure(false, dir)

	telemetry.Emit("test_event", map[string]any{"foo": "bar"})

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file when disabled, got err=%v", err)
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := observe(t)

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", event["num"])
	}

	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissions(t *testing.T) {
	dir := observe(t)

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	lines := readLines(t, dir)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"event1", "event2", "event3"} {
		var event map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i+1, err)
		}
		if event["event"] != want {
			t.Errorf("line %d: expected event=%s, got %v", i+1, want, event["event"])
		}
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	observe(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Errorf("caller map mutated: %#v", fields)
	}
}

func TestEmit_ErrorHandling_ReadOnlyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0o755)
	telemetry.Configure(true, dir)
	t.Cleanup(func() { telemetry.Configure(false, "") })

	// Must not panic; the failure goes to stderr.
	telemetry.Emit("test", map[string]any{"foo": "bar"})
}

func TestEmit_ErrorHandling_MarshalError(t *testing.T) {
	dir := observe(t)

	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_NilFields(t *testing.T) {
	dir := observe(t)

	telemetry.Emit("nil_fields", nil)

	lines := readLines(t, dir)
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "nil_fields" || len(event) != 2 {
		t.Fatalf("expected exactly event and time, got %#v", event)
	}
}

func TestConfigure_EmptyDirKeepsCurrent(t *testing.T) {
	dir := observe(t)
	telemetry.Configure(true, "")

	telemetry.Emit("kept", nil)

	if lines := readLines(t, dir); len(lines) != 1 {
		t.Fatalf("expected event in original dir, got %d lines", len(lines))
	}
}
