// Package tools is the in-process tool execution service.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Sandbox: every path a tool touches is resolved under one read root.
//   - File tools: read_file (text pages, images as raw items), list_files (non-recursive).
//   - Registry: serves the definitions as a toolexec.Service and toolexec.Lister.
package tools
