package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pullapod/internal/favorites"
	"pullapod/internal/podcastindex"
	"pullapod/internal/services"
)

func newFavoriteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite",
		Aliases: []string{"favorites", "fav"},
		Short:   "Manage saved podcast feeds",
	}
	cmd.AddCommand(newFavoriteAddCommand(ctx))
	cmd.AddCommand(newFavoriteListCommand(ctx))
	cmd.AddCommand(newFavoriteRemoveCommand(ctx))
	cmd.AddCommand(newFavoriteRenameCommand(ctx))
	cmd.AddCommand(newFavoriteClearCommand(ctx))
	cmd.AddCommand(newFavoritePathCommand(ctx))
	return cmd
}

func newFavoriteAddCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <feed url|feed id>",
		Short: "Look a podcast up and save it as a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.TrimSpace(args[0])
			if ref == "" {
				return services.Validationf("feed url or id is required")
			}
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			runCtx := ctx.commandScope(cmd.Context(), cmd)
			podcast, err := client.Lookup(runCtx, ref)
			if errors.Is(err, podcastindex.ErrNotFound) {
				return fmt.Errorf("%w: no podcast found for %q", services.ErrNotFound, ref)
			}
			if err != nil {
				return err
			}

			feed := favorites.FavoriteFeed{Name: podcast.Title, URL: podcast.URL, FeedID: podcast.ID}
			if strings.TrimSpace(name) != "" {
				feed.Name = name
			}
			if feed.URL == "" && isFeedURL(ref) {
				feed.URL = ref
			}

			res, err := svc.Add(runCtx, feed)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			switch res.Conflict {
			case favorites.ConflictURL:
				fmt.Fprintf(out, "Already a favorite: %q uses the same feed URL (%s)\n", res.Existing.Name, res.Existing.URL)
			case favorites.ConflictFeedID:
				fmt.Fprintf(out, "Already a favorite: %q has the same Podcast Index feed id (%d)\n", res.Existing.Name, res.Existing.FeedID)
			default:
				fmt.Fprintf(out, "Added %q (feed id %d)\n", res.Feed.Name, res.Feed.FeedID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name to save instead of the podcast title")
	return cmd
}

func newFavoriteListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved favorites, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			feeds, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if feeds == nil {
					feeds = []favorites.FavoriteFeed{}
				}
				return writeJSON(cmd, feeds)
			}
			out := cmd.OutOrStdout()
			if len(feeds) == 0 {
				fmt.Fprintln(out, "No favorites saved yet. Add one with 'pullapod favorite add <feed url>'.")
				return nil
			}
			rows := make([][]string, 0, len(feeds))
			for i, f := range feeds {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					f.Name,
					strconv.FormatInt(f.FeedID, 10),
					formatAge(f.AddedAt()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{numCol("#"), textCol("Name"), numCol("Feed ID"), textCol("Added")},
				rows,
			))
			return nil
		},
	}
}

func newFavoriteRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name|url>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved favorite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			matches, err := svc.FindMatches(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			target, err := singleMatch(args[0], matches)
			if err != nil {
				return err
			}
			res, err := svc.Remove(cmd.Context(), target)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q (%s remaining)\n", target.Name, plural(res.Remaining, "favorite"))
			return nil
		},
	}
}

func newFavoriteRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name|url> <new name>",
		Short: "Change the display name of a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			matches, err := svc.FindMatches(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			target, err := singleMatch(args[0], matches)
			if err != nil {
				return err
			}
			updated, err := svc.Rename(cmd.Context(), target.FeedID, args[1])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", target.Name, updated.Name)
			return nil
		},
	}
}

func newFavoriteClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Long: "Remove every favorite. Without --force you are asked to confirm.\n" +
			"With --force an unreadable favorites file is reset to an empty list.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !force {
				count, err := svc.Count(cmd.Context())
				if err != nil {
					return err
				}
				if count == 0 {
					fmt.Fprintln(out, "No favorites to clear.")
					return nil
				}
				if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Remove all %s?", plural(count, "favorite"))) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			removed, err := svc.Clear(cmd.Context())
			if err != nil {
				if !force || !errors.Is(err, favorites.ErrFileRead) {
					return err
				}
				if err := svc.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(out, "Favorites file was unreadable and has been reset (%s)\n", svc.Path())
				return nil
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"removed": removed})
			}
			fmt.Fprintf(out, "Removed %s\n", plural(removed, "favorite"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation and reset an unreadable file")
	return cmd
}

func newFavoritePathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the favorites file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.favoritesService(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), svc.Path())
			return nil
		},
	}
}
