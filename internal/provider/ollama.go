package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/history"
	"github.com/petasbytes/lotus/internal/toolexec"
)

const DefaultOllamaURL = "http://127.0.0.1:11434"

// maxLineBytes bounds one NDJSON line; tool calls with large arguments
// arrive on a single line.
const maxLineBytes = 4 << 20

// OllamaConfig configures the Ollama backend.
type OllamaConfig struct {
	BaseURL string
	// Think asks the server for native reasoning output.
	Think      bool
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Ollama streams completions from an Ollama server's /api/chat endpoint.
type Ollama struct {
	base string
	cfg  OllamaConfig
	http *http.Client
	log  *zap.Logger
}

// NewOllama returns an Ollama completer.
func NewOllama(cfg OllamaConfig) *Ollama {
	o := &Ollama{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:  cfg,
		http: cfg.HTTPClient,
		log:  cfg.Logger,
	}
	if o.base == "" {
		o.base = DefaultOllamaURL
	}
	if o.http == nil {
		o.http = http.DefaultClient
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaToolSpec `json:"function"`
}

type ollamaToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Think    *bool           `json:"think,omitempty"`
}

func toOllamaMessages(entries []history.Entry) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(entries))
	for _, e := range entries {
		m := ollamaMessage{Role: string(e.Role), Content: e.Content, ToolName: e.ToolName}
		for _, c := range e.ToolCalls {
			args := c.Arguments
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			m.ToolCalls = append(m.ToolCalls, ollamaToolCall{Function: ollamaFunction{Name: c.Name, Arguments: args}})
		}
		out = append(out, m)
	}
	return out
}

func toOllamaTools(specs []toolexec.ToolSpec) []ollamaTool {
	out := make([]ollamaTool, 0, len(specs))
	for _, s := range specs {
		out = append(out, ollamaTool{Type: "function", Function: ollamaToolSpec{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.Parameters,
		}})
	}
	return out
}

// Stream posts req and returns the decoded response stream.
func (o *Ollama) Stream(ctx context.Context, req Request) (Stream, error) {
	body := ollamaRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.History),
		Tools:    toOllamaTools(req.Tools),
		Stream:   true,
	}
	if o.cfg.Think {
		think := true
		body.Think = &think
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	o.log.Debug("ollama request", zap.String("model", req.Model), zap.Int("messages", len(body.Messages)), zap.Int("tools", len(body.Tools)))
	resp, err := o.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		detail := gjson.GetBytes(msg, "error").String()
		if detail == "" {
			detail = strings.TrimSpace(string(msg))
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %s", ErrModelNotFound, req.Model, detail)
		}
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, detail)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &ollamaStream{body: resp.Body, sc: sc}, nil
}

type ollamaStream struct {
	queue
	body io.ReadCloser
	sc   *bufio.Scanner

	thinking bool
	done     bool
	err      error

	closeOnce sync.Once
}

func (s *ollamaStream) Next() bool {
	for {
		if s.pop() {
			return true
		}
		if s.done || s.err != nil {
			return false
		}
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				s.err = err
			} else {
				s.err = io.ErrUnexpectedEOF
			}
			return false
		}
		s.decode(s.sc.Bytes())
	}
}

// decode turns one NDJSON line into queued parts.
func (s *ollamaStream) decode(line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	if !gjson.ValidBytes(line) {
		s.err = fmt.Errorf("ollama: malformed stream line: %.80q", line)
		return
	}
	r := gjson.ParseBytes(line)
	if e := r.Get("error"); e.Exists() {
		s.err = fmt.Errorf("ollama: %s", e.String())
		return
	}

	if th := r.Get("message.thinking").String(); th != "" {
		if !s.thinking {
			s.thinking = true
			s.push(Part{Token: ThinkOpen})
		}
		s.push(Part{Token: th})
	}

	content := r.Get("message.content").String()
	var calls []chat.ToolCall
	r.Get("message.tool_calls").ForEach(func(_, tc gjson.Result) bool {
		calls = append(calls, chat.ToolCall{
			ID:        tc.Get("id").String(),
			Name:      tc.Get("function.name").String(),
			Arguments: json.RawMessage(tc.Get("function.arguments").Raw),
		})
		return true
	})
	done := r.Get("done").Bool()

	if s.thinking && (content != "" || len(calls) > 0 || done) {
		s.thinking = false
		s.push(Part{Token: ThinkClose})
	}
	if content != "" || len(calls) > 0 {
		s.push(Part{Token: content, ToolCalls: calls})
	}
	s.done = done
}

func (s *ollamaStream) Err() error { return s.err }

func (s *ollamaStream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.body.Close() })
	return err
}
