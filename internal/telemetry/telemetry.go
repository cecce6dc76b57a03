// Package telemetry appends structured events to a JSONL file when
// observation is enabled. Events carry sizes and counts only, never raw text.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled bool
	baseDir = ".agent"
)

// Configure enables or disables emission and sets the directory that holds
// events.jsonl. An empty dir keeps the current one.
func Configure(observe bool, dir string) {
	mu.Lock()
	defer mu.Unlock()
	enabled = observe
	if dir != "" {
		baseDir = dir
	}
}

// Enabled reports whether events are currently written.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Emit writes a single JSON line to <dir>/events.jsonl when enabled.
// It augments fields with RFC3339Nano time and the event name.
func Emit(name string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", baseDir, err)
		return
	}

	path := filepath.Join(baseDir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
	}
}
