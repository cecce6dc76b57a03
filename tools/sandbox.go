package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolError is a machine-readable error body surfaced to the model as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool results small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Sandbox confines tool file access to a single root directory.
type Sandbox struct {
	root string
}

// NewSandbox resolves root to an absolute, symlink-free path. An empty root
// means the working directory.
func NewSandbox(root string) (*Sandbox, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs(%s): %w", root, err)
	}
	// Non-existent roots are kept as-is; later lookups fail on their own.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return &Sandbox{root: abs}, nil
}

// Root returns the absolute sandbox root.
func (s *Sandbox) Root() string { return s.root }

// Resolve maps rel to an absolute path inside the sandbox. Absolute inputs,
// parent traversal and symlink escapes are rejected, as are reads under
// .git/ and .agent/.
func (s *Sandbox) Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "absolute paths are not allowed"}
	}
	candidate := filepath.Join(s.root, filepath.Clean(rel))

	// Resolve the leaf if it exists, otherwise its parent, so a symlinked
	// parent cannot hide an escape.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	r, err := filepath.Rel(s.root, candidate)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) || filepath.IsAbs(r) {
		return "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "requested path resolves outside the sandbox root"}
	}

	r = filepath.ToSlash(r)
	for _, denied := range []string{".git", ".agent"} {
		if r == denied || strings.HasPrefix(r, denied+"/") {
			return "", ToolError{Code: "ERR_DENIED_READ", Message: "reads under .git/ or .agent/ are not allowed"}
		}
	}
	return candidate, nil
}
