package tools

import (
	"context"
	"encoding/json"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/toolexec"
)

type ReadFileInput struct {
	Path   string `json:"path" jsonschema_description:"Relative file path."`
	Offset int    `json:"offset,omitempty" jsonschema_description:"Line offset (0-based) to start reading from."`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum lines to return from offset (default 200)."`
}

const (
	defaultReadFileLimit = 200
	truncationSentinel   = "-- truncated; use offset/limit to fetch more --\n"
	maxLineRunes         = 2000
	overallRuneCap       = 12_000
	maxImageBytes        = 5 << 20
)

var readFileInputSchema = GenerateSchema[ReadFileInput]()

// ReadFileDefinition returns read_file bound to sb.
func ReadFileDefinition(sb *Sandbox) ToolDefinition {
	return ToolDefinition{
		Name:        "read_file",
		Description: "Read a file addressed by a relative path within the workspace. Text files are paged by line; images are returned as image content. Directory paths and unsafe paths are rejected.",
		InputSchema: readFileInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (toolexec.Payload, error) {
			return readFile(sb, input)
		},
	}
}

func readFile(sb *Sandbox, input json.RawMessage) (toolexec.Payload, error) {
	var in ReadFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return toolexec.Payload{}, err
	}
	abs, err := sb.Resolve(in.Path)
	if err != nil {
		return toolexec.Payload{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return toolexec.Payload{}, err
	}
	if fi.IsDir() {
		return toolexec.Payload{}, ToolError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	}

	if mt := imageType(abs); mt != "" {
		if fi.Size() > maxImageBytes {
			return toolexec.Payload{}, ToolError{Code: "ERR_TOO_LARGE", Message: "image exceeds 5 MiB"}
		}
		b, err := os.ReadFile(abs)
		if err != nil {
			return toolexec.Payload{}, err
		}
		return toolexec.Payload{Items: []chat.Item{
			{Kind: chat.ItemText, Text: filepath.ToSlash(in.Path)},
			{Kind: chat.ItemImage, Data: b, MIMEType: mt},
		}}, nil
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return toolexec.Payload{}, err
	}
	return toolexec.Payload{Text: page(string(b), in.Offset, in.Limit)}, nil
}

// imageType returns the image MIME type implied by path's extension, or "".
func imageType(path string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return ""
}

// page selects lines [offset, offset+limit) and clamps them so results stay
// small. A trailing sentinel marks any truncation.
func page(content string, offset, limit int) string {
	if limit <= 0 {
		limit = defaultReadFileLimit
	}
	lines := strings.Split(content, "\n")
	offset = min(max(offset, 0), len(lines))
	end := min(offset+limit, len(lines))

	truncated := end < len(lines)
	for i := offset; i < end; i++ {
		if r := []rune(lines[i]); len(r) > maxLineRunes {
			lines[i] = string(r[:maxLineRunes])
			truncated = true
		}
	}

	out := strings.Join(lines[offset:end], "\n")
	if r := []rune(out); len(r) > overallRuneCap {
		out = string(r[:overallRuneCap])
		truncated = true
	}
	if !truncated {
		return out
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + truncationSentinel
}
