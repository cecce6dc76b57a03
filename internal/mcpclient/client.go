// Package mcpclient serves tools from a Model Context Protocol server.
//
// The endpoint selects the transport: http(s) URLs use the streamable HTTP
// transport, "stdio://cmd args" launches a local server process.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/toolexec"
)

// ErrToolReported wraps the text of a result the server flagged as an error.
var ErrToolReported = errors.New("tool reported an error")

// transportBuilder is overridden in tests.
var transportBuilder = buildTransport

// Client lazily connects to one MCP server and implements toolexec.Service
// and toolexec.Lister.
type Client struct {
	impl     *mcp.Client
	endpoint string
	log      *zap.Logger

	mu      sync.Mutex
	session *mcp.ClientSession
}

// New returns a client for endpoint. Nothing is dialled until first use.
func New(endpoint string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	impl := mcp.NewClient(&mcp.Implementation{Name: "lotus", Version: "dev"}, nil)
	return &Client{impl: impl, endpoint: endpoint, log: log}
}

// connect returns the open session, dialling if there is none. A failed
// dial is not remembered; the next call tries again.
func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	t, err := transportBuilder(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("mcp transport: %w", err)
	}
	s, err := c.impl.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp connect %s: %w", c.endpoint, err)
	}
	c.log.Info("mcp connected", zap.String("endpoint", c.endpoint))
	c.session = s
	return s, nil
}

// ListTools returns every tool the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]toolexec.ToolSpec, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	var specs []toolexec.ToolSpec
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp list tools: %w", err)
		}
		spec, err := toSpec(tool)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CallTool runs name on the server and converts its content items.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (toolexec.Payload, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return toolexec.Payload{}, err
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return toolexec.Payload{}, fmt.Errorf("mcp call %s: %w", name, err)
	}
	items, err := toItems(res.Content)
	if err != nil {
		return toolexec.Payload{}, err
	}
	if res.IsError {
		return toolexec.Payload{}, fmt.Errorf("%w: %s", ErrToolReported, joinText(items))
	}
	return toolexec.Payload{Items: items}, nil
}

// Close ends the session, if one was opened.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func toSpec(t *mcp.Tool) (toolexec.ToolSpec, error) {
	params := json.RawMessage(`{"type":"object"}`)
	if t.InputSchema != nil {
		b, err := json.Marshal(t.InputSchema)
		if err != nil {
			return toolexec.ToolSpec{}, fmt.Errorf("schema for %s: %w", t.Name, err)
		}
		params = b
	}
	return toolexec.ToolSpec{Name: t.Name, Description: t.Description, Parameters: params}, nil
}

// toItems converts content to items. Kinds other than text and image keep
// their wire form in Raw.
func toItems(content []mcp.Content) ([]chat.Item, error) {
	items := make([]chat.Item, 0, len(content))
	for _, ct := range content {
		switch v := ct.(type) {
		case *mcp.TextContent:
			items = append(items, chat.Item{Kind: chat.ItemText, Text: v.Text})
		case *mcp.ImageContent:
			items = append(items, chat.Item{Kind: chat.ItemImage, Data: v.Data, MIMEType: v.MIMEType})
		default:
			raw, err := json.Marshal(ct)
			if err != nil {
				return nil, fmt.Errorf("encode content: %w", err)
			}
			kind := gjson.GetBytes(raw, "type").String()
			if kind == "" {
				kind = "unknown"
			}
			items = append(items, chat.Item{Kind: kind, Raw: raw})
		}
	}
	return items, nil
}

func joinText(items []chat.Item) string {
	var parts []string
	for _, it := range items {
		if it.Kind == chat.ItemText {
			parts = append(parts, it.Text)
		}
	}
	return strings.Join(parts, "\n")
}

const stdioPrefix = "stdio://"

func buildTransport(ctx context.Context, endpoint string) (mcp.Transport, error) {
	endpoint = strings.TrimSpace(endpoint)
	lowered := strings.ToLower(endpoint)
	switch {
	case endpoint == "":
		return nil, errors.New("endpoint is empty")
	case strings.HasPrefix(lowered, stdioPrefix):
		parts := strings.Fields(endpoint[len(stdioPrefix):])
		if len(parts) == 0 {
			return nil, errors.New("stdio command is empty")
		}
		// #nosec G204 -- the command comes from local configuration.
		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		return &mcp.CommandTransport{Command: cmd}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		return &mcp.StreamableClientTransport{Endpoint: endpoint}, nil
	default:
		return nil, fmt.Errorf("unsupported endpoint %q", endpoint)
	}
}
