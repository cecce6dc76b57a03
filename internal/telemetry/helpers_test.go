package telemetry_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/lotus/internal/telemetry"
)

// observe enables emission into a fresh temp dir for the duration of t.
func observe(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	telemetry.Configure(true, dir)
	t.Cleanup(func() { telemetry.Configure(false, "") })
	return dir
}

func readLines(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// readLastJSONL returns the last non-empty JSON object in dir/events.jsonl.
func readLastJSONL(t *testing.T, dir string) (map[string]any, error) {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var last string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			last = txt
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if last == "" {
		return nil, errors.New("no lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		return nil, err
	}
	return m, nil
}
