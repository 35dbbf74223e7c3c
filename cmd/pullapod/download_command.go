package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pullapod/internal/config"
	"pullapod/internal/download"
	"pullapod/internal/history"
	"pullapod/internal/logging"
	"pullapod/internal/rssfeed"
	"pullapod/internal/services"
)

type downloadFlags struct {
	latest    int
	match     string
	since     string
	until     string
	output    string
	noTag     bool
	overwrite bool
}

type downloadItemOutput struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Status  string `json:"status"`
	Bytes   int64  `json:"bytes"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	flags := &downloadFlags{}

	cmd := &cobra.Command{
		Use:   "download <feed url|favorite>",
		Short: "Download episodes from a feed or a saved favorite",
		Long: "Download episodes from a feed URL or a favorite matched by name.\n" +
			"Without filters only the newest episode is fetched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sel, err := flags.selection()
			if err != nil {
				return err
			}
			outputDir := cfg.Paths.DownloadDir
			if strings.TrimSpace(flags.output) != "" {
				outputDir, err = config.ExpandPath(flags.output)
				if err != nil {
					return services.Validationf("--output: %v", err)
				}
			}

			feedURL, err := resolveFeedURL(cmd, ctx, args[0])
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()
			runCtx = ctx.commandScope(runCtx, cmd)
			logger := logging.WithContext(runCtx, ctx.loggerFor(cmd))

			parser := rssfeed.NewParser(&http.Client{Timeout: cfg.RequestTimeout()}, cfg.PodcastIndex.UserAgent)
			feed, err := parser.Parse(runCtx, feedURL)
			if err != nil {
				return err
			}
			episodes := rssfeed.Select(feed.Episodes, sel)
			if len(episodes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No episodes of %q match the filters.\n", feed.Title)
				return nil
			}

			items := make([]download.Item, 0, len(episodes))
			for _, ep := range episodes {
				items = append(items, download.Item{
					PodcastTitle:  feed.Title,
					PodcastAuthor: feed.Author,
					FeedURL:       feedURL,
					Episode:       ep,
				})
			}

			var progress io.Writer
			if !ctx.jsonOutput() && shouldColorize(cmd.ErrOrStderr()) {
				progress = cmd.ErrOrStderr()
			}

			var result download.Result
			err = ctx.withHistory(func(store *history.Store) error {
				d := download.New(download.Options{
					Dir:          outputDir,
					TagAudio:     cfg.Download.TagAudio && !flags.noTag,
					Overwrite:    cfg.Download.Overwrite || flags.overwrite,
					MinFreeBytes: uint64(cfg.Download.MinFreeMiB) << 20,
					UserAgent:    cfg.PodcastIndex.UserAgent,
					Progress:     progress,
					History:      store,
					Logger:       logger,
				})
				var derr error
				result, derr = d.Download(runCtx, download.Request{Items: items})
				return derr
			})
			if err != nil {
				return err
			}
			if err := renderDownloadResult(cmd, ctx.jsonOutput(), result); err != nil {
				return err
			}
			if failed := result.Count(download.StatusFailed); failed > 0 {
				return fmt.Errorf("%d of %s failed to download", failed, plural(len(result.Items), "episode"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.latest, "latest", 0, "Download the newest N matching episodes")
	cmd.Flags().StringVar(&flags.match, "match", "", "Only episodes whose title contains this text")
	cmd.Flags().StringVar(&flags.since, "since", "", "Only episodes published on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.until, "until", "", "Only episodes published on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (defaults to paths.download_dir)")
	cmd.Flags().BoolVar(&flags.noTag, "no-tag", false, "Do not write ID3 tags to MP3 files")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace files that already exist")
	return cmd
}

// selection validates the filter flags. With no filter at all only the
// newest episode is selected.
func (f *downloadFlags) selection() (rssfeed.Selection, error) {
	if f.latest < 0 {
		return rssfeed.Selection{}, services.Validationf("--latest must not be negative (got %d)", f.latest)
	}
	since, err := parseDay("since", f.since)
	if err != nil {
		return rssfeed.Selection{}, err
	}
	until, err := parseDay("until", f.until)
	if err != nil {
		return rssfeed.Selection{}, err
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return rssfeed.Selection{}, services.Validationf("--until (%s) is before --since (%s)", f.until, f.since)
	}
	sel := rssfeed.Selection{
		Latest: f.latest,
		Match:  strings.TrimSpace(f.match),
		Since:  since,
	}
	if !until.IsZero() {
		sel.Until = until.AddDate(0, 0, 1)
	}
	if sel.Latest == 0 && sel.Match == "" && sel.Since.IsZero() && sel.Until.IsZero() {
		sel.Latest = 1
	}
	return sel, nil
}

// resolveFeedURL accepts a feed URL as is and otherwise looks the argument up
// among the saved favorites.
func resolveFeedURL(cmd *cobra.Command, ctx *commandContext, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Validationf("feed url or favorite name is required")
	}
	if isFeedURL(ref) {
		return ref, nil
	}
	svc, err := ctx.favoritesService(cmd)
	if err != nil {
		return "", err
	}
	matches, err := svc.FindMatches(cmd.Context(), ref)
	if err != nil {
		return "", err
	}
	feed, err := singleMatch(ref, matches)
	if err != nil {
		return "", err
	}
	return feed.URL, nil
}

func renderDownloadResult(cmd *cobra.Command, asJSON bool, result download.Result) error {
	if asJSON {
		items := make([]downloadItemOutput, 0, len(result.Items))
		for _, r := range result.Items {
			item := downloadItemOutput{
				Title:  r.Item.Episode.Title,
				Path:   r.Path,
				Status: string(r.Status),
				Bytes:  r.Bytes,
			}
			if r.Err != nil {
				item.Error = r.Err.Error()
			}
			if r.TagWarning != nil {
				item.Warning = r.TagWarning.Error()
			}
			items = append(items, item)
		}
		return writeJSON(cmd, items)
	}

	rows := make([][]string, 0, len(result.Items))
	for _, r := range result.Items {
		size := "-"
		if r.Bytes > 0 {
			size = humanize.IBytes(uint64(r.Bytes))
		}
		note := ""
		switch {
		case r.Err != nil:
			note = r.Err.Error()
		case r.TagWarning != nil:
			note = "not tagged: " + r.TagWarning.Error()
		}
		rows = append(rows, []string{downloadStatusLabel(r.Status), r.Item.Episode.Title, size, note})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]column{textCol("Status"), textCol("Episode"), numCol("Size"), textCol("Note")},
		rows,
	))
	fmt.Fprintf(out, "%d downloaded, %d skipped, %d failed\n",
		result.Count(download.StatusDownloaded),
		result.Count(download.StatusSkippedExists)+result.Count(download.StatusSkippedHistory),
		result.Count(download.StatusFailed))
	return nil
}

func downloadStatusLabel(status download.Status) string {
	switch status {
	case download.StatusDownloaded:
		return "downloaded"
	case download.StatusSkippedExists:
		return "skipped (exists)"
	case download.StatusSkippedHistory:
		return "skipped (history)"
	case download.StatusFailed:
		return "failed"
	default:
		return string(status)
	}
}
