package tools

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/petasbytes/lotus/internal/toolexec"
)

type ListFilesInput struct {
	Path     string `json:"path,omitempty" jsonschema_description:"Optional relative path to list files from (defaults to current directory)."`
	Page     int    `json:"page,omitempty" jsonschema_description:"1-based page number (default 1)."`
	PageSize int    `json:"page_size,omitempty" jsonschema_description:"Page size (default 200)."`
}

const defaultListFilesPageSize = 200

var listFilesInputSchema = GenerateSchema[ListFilesInput]()

// ListFilesDefinition returns list_files bound to sb.
func ListFilesDefinition(sb *Sandbox) ToolDefinition {
	return ToolDefinition{
		Name:        "list_files",
		Description: "List names of files in a directory within the workspace (non-recursive). Directories end with '/'.",
		InputSchema: listFilesInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (toolexec.Payload, error) {
			return listFiles(sb, input)
		},
	}
}

// listFiles returns a JSON array of sorted entry names, paged.
func listFiles(sb *Sandbox, input json.RawMessage) (toolexec.Payload, error) {
	var in ListFilesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return toolexec.Payload{}, err
	}
	if in.Path == "" {
		in.Path = "."
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = defaultListFilesPageSize
	}

	dir, err := sb.Resolve(in.Path)
	if err != nil {
		return toolexec.Payload{}, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return toolexec.Payload{}, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	start := (in.Page - 1) * in.PageSize
	if start >= len(names) {
		return toolexec.Payload{Text: "[]"}, nil
	}
	end := min(start+in.PageSize, len(names))

	b, err := json.Marshal(names[start:end])
	if err != nil {
		return toolexec.Payload{}, err
	}
	return toolexec.Payload{Text: string(b)}, nil
}
