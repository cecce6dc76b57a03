package tools_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/lotus/tools"
)

var (
	sharedDir string
	sandbox   *tools.Sandbox
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tools-tests-")
	if err != nil {
		panic(err)
	}
	sb, err := tools.NewSandbox(dir)
	if err != nil {
		panic(err)
	}
	sharedDir, sandbox = sb.Root(), sb

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// rel returns a per-test relative path under the sandbox.
func rel(t *testing.T, elems ...string) string {
	return filepath.Join(append([]string{t.Name()}, elems...)...)
}

// prepare writes files (name → content) into the per-test directory.
func prepare(t *testing.T, files map[string]string) {
	t.Helper()
	dir := filepath.Join(sharedDir, rel(t))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("prepare: %v", err)
		}
	}
}
