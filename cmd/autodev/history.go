package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/autodev/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Storage.HistoryDB); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			db, err := history.NewDB(cmd.Context(), cfg.Storage.HistoryDB)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Run", "Started", "Duration", "Outcome", "Failed Agent", "Builds", "Issues", "Description"})
			for _, r := range runs {
				tw.AppendRow(table.Row{
					shortID(r.ID),
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					formatDuration(r),
					r.Outcome,
					r.FailedAgent,
					r.Builds,
					r.Issues,
					truncate(r.Description, 48),
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}

func formatDuration(r history.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.Duration().Round(time.Second).String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return fmt.Sprintf("%s...", string(runes[:max-3]))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
