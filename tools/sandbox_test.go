package tools_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/petasbytes/lotus/tools"
)

func TestSandbox_BasicRejections(t *testing.T) {
	sb, err := tools.NewSandbox(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	abs, err := filepath.Abs(".")
	if err != nil {
		t.Skipf("cannot compute absolute path: %v", err)
	}
	if _, err := sb.Resolve(abs); err == nil || !strings.Contains(err.Error(), "ERR_PATH_OUTSIDE_SANDBOX") {
		t.Fatalf("expected outside-sandbox error for absolute path, got %v", err)
	}
	if _, err := sb.Resolve("../../x"); err == nil {
		t.Fatal("expected error for parent traversal")
	}
}

func TestSandbox_ReadDenylist(t *testing.T) {
	root := t.TempDir()
	_ = os.Mkdir(filepath.Join(root, ".agent"), 0o755)
	_ = os.Mkdir(filepath.Join(root, ".git"), 0o755)
	sb, err := tools.NewSandbox(root)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{".agent/events.jsonl", ".git/HEAD", ".git"} {
		if _, err := sb.Resolve(p); err == nil || !strings.Contains(err.Error(), "ERR_DENIED_READ") {
			t.Fatalf("%s: expected ERR_DENIED_READ, got %v", p, err)
		}
	}
	// A name that merely starts with .git is fine.
	if _, err := sb.Resolve(".gitignore"); err != nil {
		t.Fatalf(".gitignore: unexpected %v", err)
	}
}

func TestSandbox_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root, outside := t.TempDir(), t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "out")); err != nil {
		t.Skipf("symlink not allowed on this FS: %v", err)
	}
	sb, err := tools.NewSandbox(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sb.Resolve("out/escape.txt"); err == nil {
		t.Fatal("expected reject for symlink escape")
	}
}

func TestSandbox_EmptyRootIsWorkingDir(t *testing.T) {
	sb, err := tools.NewSandbox("")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(sb.Root()) {
		t.Fatalf("root not absolute: %q", sb.Root())
	}
}
