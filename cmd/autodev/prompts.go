package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/autodev/internal/prompts"
)

func newPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts [id]",
		Short: "List the registered oracle prompts, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prompts.DefaultRegistry()
			if len(args) == 1 {
				p, err := reg.GetLatest(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n%s\n", p.ID, p.Version, p.Content)
				return nil
			}
			renderPromptTable(cmd, reg)
			return nil
		},
	}
}

func renderPromptTable(cmd *cobra.Command, reg *prompts.PromptRegistry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"ID", "Versions", "Tags", "Description"})
	for _, id := range reg.List() {
		versions := reg.Versions(id)
		names := make([]string, 0, len(versions))
		for _, v := range versions {
			names = append(names, string(v))
		}
		desc, tags := "", ""
		if p, err := reg.GetLatest(id); err == nil {
			desc, tags = p.Description, strings.Join(p.Tags, ",")
		}
		tw.AppendRow(table.Row{id, strings.Join(names, ", "), tags, desc})
	}
	tw.Render()
}
