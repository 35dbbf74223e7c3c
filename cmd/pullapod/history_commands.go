package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pullapod/internal/history"
)

const defaultHistoryLimit = 20

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the download history",
	}
	cmd.AddCommand(newHistoryListCommand(ctx))
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recently downloaded episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRange("limit", limit, 1, 1000); err != nil {
				return err
			}
			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, nonNil(entries))
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No downloads recorded yet.")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						formatAge(e.DownloadedAt),
						e.FeedTitle,
						e.EpisodeTitle,
						humanize.IBytes(uint64(max(e.SizeBytes, 0))),
						e.FilePath,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{textCol("Downloaded"), textCol("Podcast"), textCol("Episode"), numCol("Size"), textCol("File")},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of entries to show")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded download",
		Long:  "Forget every recorded download. Files on disk are not touched, but\nepisodes may be downloaded again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", plural(int(removed), "download record"))
				return nil
			})
		},
	}
}
