package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pullapod/internal/logging"
	"pullapod/internal/recent"
)

const (
	defaultRecentMax  = 5
	defaultRecentDays = 7
	recentMaxLimit    = 100
	recentDaysLimit   = 90
)

type recentFailure struct {
	Feed  string `json:"feed"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type recentOutput struct {
	Episodes []recent.Episode `json:"episodes"`
	Failures []recentFailure  `json:"failures"`
}

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var maxPerFeed int
	var days int
	var feedQuery string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent episodes from your favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max") {
				maxPerFeed = cfg.Recent.DefaultMax
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.Recent.DefaultDays
			}
			if err := requireRange("max", maxPerFeed, 1, recentMaxLimit); err != nil {
				return err
			}
			if err := requireRange("days", days, 1, recentDaysLimit); err != nil {
				return err
			}

			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			feeds, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(feeds) == 0 {
				if ctx.jsonOutput() {
					return writeJSON(cmd, recentOutput{Episodes: []recent.Episode{}, Failures: []recentFailure{}})
				}
				fmt.Fprintln(out, "No favorites saved yet. Add one with 'pullapod favorite add <feed url>'.")
				return nil
			}
			if feedQuery != "" {
				matches, err := svc.FindMatches(cmd.Context(), feedQuery)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					_, err := singleMatch(feedQuery, matches)
					return err
				}
				feeds = matches
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()
			runCtx = ctx.commandScope(runCtx, cmd)
			logger := logging.WithContext(runCtx, ctx.loggerFor(cmd))

			stderr := cmd.ErrOrStderr()
			orch := recent.New(client, recent.Options{
				MaxConcurrent:     cfg.Recent.MaxConcurrent,
				BatchDelay:        cfg.BatchDelay(),
				ProgressThreshold: cfg.Recent.ProgressThreshold,
				Progress: func(done, total int) {
					fmt.Fprintf(stderr, "Fetched %d/%d feeds\n", done, total)
				},
				Logger: logger,
			})
			logger.Debug("fetching recent episodes",
				logging.Int("feeds", len(feeds)),
				logging.Int("max_per_feed", maxPerFeed),
				logging.Int("days", days))
			since := time.Now().AddDate(0, 0, -days)
			result, err := orch.Fetch(runCtx, feeds, recent.Params{MaxPerFeed: maxPerFeed, Since: since})
			if err != nil {
				return err
			}
			if result.AllFailed() {
				first := result.Failures()[0]
				return fmt.Errorf("could not fetch episodes for any of %s (first error from %q: %v)",
					plural(len(result.Feeds), "favorite"), first.Feed.Name, first.Err)
			}

			failures := make([]recentFailure, 0)
			for _, f := range result.Failures() {
				failures = append(failures, recentFailure{Feed: f.Feed.Name, Kind: string(f.Kind), Error: f.Err.Error()})
			}
			episodes := result.Episodes()

			if ctx.jsonOutput() {
				if episodes == nil {
					episodes = []recent.Episode{}
				}
				return writeJSON(cmd, recentOutput{Episodes: episodes, Failures: failures})
			}

			for _, f := range failures {
				fmt.Fprintf(stderr, "Warning: skipped %q (%s): %s\n", f.Feed, f.Kind, f.Error)
			}
			if len(episodes) == 0 {
				fmt.Fprintf(out, "No new episodes in the last %s.\n", plural(days, "day"))
				return nil
			}
			fmt.Fprintln(out, renderRecentTable(episodes))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPerFeed, "max", defaultRecentMax, "Episodes per feed (1-100)")
	cmd.Flags().IntVar(&days, "days", defaultRecentDays, "Look back this many days (1-90)")
	cmd.Flags().StringVar(&feedQuery, "feed", "", "Only favorites matching this name or URL")
	return cmd
}

func renderRecentTable(episodes []recent.Episode) string {
	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		rows = append(rows, []string{
			formatDay(ep.Published()),
			ep.FeedName,
			ep.Title,
			formatDuration(ep.DurationValue()),
		})
	}
	return renderTable(
		[]column{textCol("Published"), textCol("Podcast"), textCol("Episode"), numCol("Length")},
		rows,
	)
}
