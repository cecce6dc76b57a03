package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/config"
	"github.com/petasbytes/lotus/internal/mcpclient"
	"github.com/petasbytes/lotus/internal/provider"
	"github.com/petasbytes/lotus/internal/toolexec"
	"github.com/petasbytes/lotus/tools"
)

func newCompleter(cfg config.ProviderConfig, log *zap.Logger) provider.Completer {
	switch cfg.Backend {
	case config.BackendAnthropic:
		// The SDK reads ANTHROPIC_API_KEY from the environment.
		client := anthropic.NewClient()
		return provider.NewAnthropic(&client, provider.AnthropicConfig{
			MaxTokens: cfg.MaxTokens,
			Logger:    log.Named("anthropic"),
		})
	default:
		return provider.NewOllama(provider.OllamaConfig{
			BaseURL: cfg.BaseURL,
			Think:   cfg.Think,
			Logger:  log.Named("ollama"),
		})
	}
}

// toolService is both halves of a tool execution service.
type toolService interface {
	toolexec.Service
	toolexec.Lister
}

// newToolService returns the MCP client when an endpoint is configured and
// the sandboxed built-in tools otherwise. closeFn releases the service.
func newToolService(cfg config.ToolsConfig, log *zap.Logger) (svc toolService, closeFn func() error, err error) {
	if cfg.MCPEndpoint != "" {
		c := mcpclient.New(cfg.MCPEndpoint, log.Named("mcp"))
		return c, c.Close, nil
	}
	sb, err := tools.NewSandbox(cfg.ReadRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("tools sandbox: %w", err)
	}
	return tools.Builtin(sb), func() error { return nil }, nil
}

// listTools fetches the definitions offered to the model.
func listTools(ctx context.Context, svc toolexec.Lister) ([]toolexec.ToolSpec, error) {
	specs, err := svc.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return specs, nil
}
