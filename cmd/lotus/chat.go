package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petasbytes/lotus/internal/chat"
	"github.com/petasbytes/lotus/internal/runner"
	"github.com/petasbytes/lotus/internal/toolexec"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Each line read from stdin is sent as one user turn. The model may call
tools between replies. Type 'exit' or press Ctrl-C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			svc, closeSvc, err := newToolService(cfg.Tools, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeSvc() }()

			conv := chat.NewConversation()
			sess := runner.New(conv, newCompleter(cfg.Provider, log), toolexec.NewAdapter(svc, log.Named("tools")), svc, runner.Options{
				Model:       cfg.Provider.Model,
				MaxTurns:    cfg.Runner.MaxTurns,
				TokenBudget: cfg.Runner.TokenBudget,
				Logger:      log.Named("runner"),
			})

			log.Debug("chat started",
				zap.String("backend", cfg.Provider.Backend),
				zap.String("model", cfg.Provider.Model),
			)
			return chatLoop(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// submitter is the part of runner.Session the chat loop drives.
type submitter interface {
	Submit(ctx context.Context, text string) (chat.Message, error)
	Conversation() *chat.Conversation
}

// chatLoop submits every non-empty line of in until EOF, "exit" or ctx is
// done. Turn errors are reported and the loop continues.
func chatLoop(ctx context.Context, sess submitter, in io.Reader, out, errOut io.Writer) error {
	pr := newPrinter(out)
	sess.Conversation().Subscribe(pr.Observe)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprintln(out, "Chat with Lotus (Ctrl-C to quit)")
	for {
		fmt.Fprintf(out, "%s: ", chat.RoleUser.Author())

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		fmt.Fprintf(out, "%s: ", chat.RoleAssistant.Author())
		_, err := sess.Submit(ctx, line)
		pr.Finish()
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil
		default:
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
}
