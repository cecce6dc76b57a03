package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/petasbytes/lotus/internal/toolexec"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Args:  cobra.NoArgs,
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

			specs, err := listTools(cmd.Context(), svc)
			if err != nil {
				return err
			}
			return renderTools(cmd.OutOrStdout(), specs)
		},
	}
}

func renderTools(w io.Writer, specs []toolexec.ToolSpec) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Description"})
	for _, s := range specs {
		t.AppendRow(table.Row{s.Name, s.Description})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tools", len(specs)), ""})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
