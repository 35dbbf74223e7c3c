package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pullapod/internal/podcastindex"
	"pullapod/internal/services"
	"pullapod/internal/textutil"
)

const (
	defaultListMax = 10
	listMaxLimit   = 100
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the Podcast Index by title, author, or owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.TrimSpace(strings.Join(args, " "))
			if term == "" {
				return services.Validationf("search term is required")
			}
			if err := requireRange("max", limit, 1, listMaxLimit); err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			podcasts, err := client.Search(ctx.commandScope(cmd.Context(), cmd), term, limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, nonNil(podcasts))
			}
			if len(podcasts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No podcasts found for %q.\n", term)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPodcastTable(podcasts))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", defaultListMax, "Maximum results (1-100)")
	return cmd
}

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var lang string
	var categories []string

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show podcasts trending on the Podcast Index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRange("max", limit, 1, listMaxLimit); err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			podcasts, err := client.Trending(ctx.commandScope(cmd.Context(), cmd), podcastindex.TrendingRequest{
				Max:        limit,
				Lang:       strings.TrimSpace(lang),
				Categories: categories,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, nonNil(podcasts))
			}
			if len(podcasts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No trending podcasts matched.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPodcastTable(podcasts))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", defaultListMax, "Maximum results (1-100)")
	cmd.Flags().StringVar(&lang, "lang", "", "Language code, for example en")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category name or id (repeatable)")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <feed url|feed id>",
		Short: "Show details for one podcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			podcast, err := lookupPodcast(cmd, ctx, client, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, podcast)
			}
			out := cmd.OutOrStdout()
			printer := newStatusPrinter(out)
			printer.section(podcast.Title)
			fields := []struct{ label, value string }{
				{"Feed ID", strconv.FormatInt(podcast.ID, 10)},
				{"Author", podcast.Author},
				{"Feed URL", podcast.URL},
				{"Website", podcast.Link},
				{"Language", podcast.Language},
				{"Categories", strings.Join(podcast.CategoryNames(), ", ")},
				{"Episodes", humanize.Comma(int64(podcast.EpisodeCount))},
				{"Last updated", formatAge(podcast.LastUpdated())},
			}
			for _, f := range fields {
				printer.field(f.label, f.value)
			}
			if desc := strings.TrimSpace(podcast.Description); desc != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, textutil.Truncate(textutil.SanitizeName(desc), 600))
			}
			return nil
		},
	}
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var days int

	cmd := &cobra.Command{
		Use:   "episodes <feed url|feed id>",
		Short: "List recent episodes of one podcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRange("max", limit, 1, listMaxLimit); err != nil {
				return err
			}
			if days < 0 {
				return services.Validationf("--days must not be negative (got %d)", days)
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			podcast, err := lookupPodcast(cmd, ctx, client, args[0])
			if err != nil {
				return err
			}
			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}
			episodes, err := client.EpisodesByFeedID(ctx.commandScope(cmd.Context(), cmd), podcast.ID, limit, since)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, nonNil(episodes))
			}
			out := cmd.OutOrStdout()
			if len(episodes) == 0 {
				fmt.Fprintf(out, "No episodes found for %q.\n", podcast.Title)
				return nil
			}
			rows := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				rows = append(rows, []string{
					formatDay(ep.Published()),
					ep.Title,
					formatDuration(ep.DurationValue()),
					humanize.IBytes(uint64(max(ep.EnclosureLength, 0))),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{textCol("Published"), textCol("Episode"), numCol("Length"), numCol("Size")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", defaultListMax, "Maximum episodes (1-100)")
	cmd.Flags().IntVar(&days, "days", 0, "Only episodes from the last N days (0 for no limit)")
	return cmd
}

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episode <episode id>",
		Short: "Show details for one episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return services.Validationf("episode id must be a positive number (got %q)", args[0])
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			ep, err := client.EpisodeByID(ctx.commandScope(cmd.Context(), cmd), id)
			if errors.Is(err, podcastindex.ErrNotFound) {
				return fmt.Errorf("%w: no episode with id %d", services.ErrNotFound, id)
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, ep)
			}
			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.section(ep.Title)
			printer.field("Podcast", ep.FeedTitle)
			printer.field("Feed ID", strconv.FormatInt(ep.FeedID, 10))
			printer.field("Published", formatDay(ep.Published()))
			printer.field("Length", formatDuration(ep.DurationValue()))
			if ep.EnclosureLength > 0 {
				printer.field("Size", humanize.IBytes(uint64(ep.EnclosureLength)))
			}
			printer.field("Audio", ep.EnclosureURL)
			printer.field("Link", ep.Link)
			return nil
		},
	}
}

func newLatestCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the newest episodes published anywhere on the Podcast Index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRange("max", limit, 1, listMaxLimit); err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			episodes, err := client.RecentEpisodes(ctx.commandScope(cmd.Context(), cmd), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, nonNil(episodes))
			}
			out := cmd.OutOrStdout()
			if len(episodes) == 0 {
				fmt.Fprintln(out, "The index returned no recent episodes.")
				return nil
			}
			rows := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				rows = append(rows, []string{
					strconv.FormatInt(ep.ID, 10),
					formatAge(ep.Published()),
					ep.FeedTitle,
					ep.Title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{numCol("Episode ID"), textCol("Published"), textCol("Podcast"), textCol("Episode")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", defaultListMax, "Maximum episodes (1-100)")
	return cmd
}

func lookupPodcast(cmd *cobra.Command, ctx *commandContext, client *podcastindex.Client, ref string) (podcastindex.Podcast, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return podcastindex.Podcast{}, services.Validationf("feed url or id is required")
	}
	podcast, err := client.Lookup(ctx.commandScope(cmd.Context(), cmd), ref)
	if errors.Is(err, podcastindex.ErrNotFound) {
		return podcastindex.Podcast{}, fmt.Errorf("%w: no podcast found for %q", services.ErrNotFound, ref)
	}
	return podcast, err
}

func renderPodcastTable(podcasts []podcastindex.Podcast) string {
	rows := make([][]string, 0, len(podcasts))
	for _, p := range podcasts {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Author,
			humanize.Comma(int64(p.EpisodeCount)),
			formatAge(p.LastUpdated()),
		})
	}
	return renderTable(
		[]column{numCol("Feed ID"), textCol("Title"), textCol("Author"), numCol("Episodes"), textCol("Updated")},
		rows,
	)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
