package recent

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pullapod/internal/favorites"
	"pullapod/internal/logging"
	"pullapod/internal/podcastindex"
	"pullapod/internal/services"
)

const (
	DefaultMaxConcurrent     = 5
	DefaultBatchDelay        = 100 * time.Millisecond
	DefaultProgressThreshold = 10
)

// FailureKind aliases the client's failure classes.
type FailureKind = podcastindex.FailureKind

// Fetcher retrieves recent episodes for one feed. *podcastindex.Client
// satisfies it.
type Fetcher interface {
	EpisodesByFeedID(ctx context.Context, feedID int64, max int, since time.Time) ([]podcastindex.Episode, error)
}

// Options tunes the fan-out.
type Options struct {
	MaxConcurrent     int
	BatchDelay        time.Duration
	ProgressThreshold int
	// Progress receives the cumulative completed count after each batch when
	// more than ProgressThreshold feeds are requested.
	Progress func(done, total int)
	Logger   *slog.Logger
}

// Params are the per-feed query parameters.
type Params struct {
	MaxPerFeed int
	Since      time.Time
}

// FeedResult is the outcome for one feed.
type FeedResult struct {
	Feed     favorites.FavoriteFeed
	Episodes []podcastindex.Episode
	Err      error
	Kind     FailureKind
}

// Failed reports whether the request for this feed failed.
func (r FeedResult) Failed() bool {
	return r.Err != nil
}

// Result holds one FeedResult per requested feed, in request order.
type Result struct {
	Feeds []FeedResult
}

// AllFailed is true when at least one feed was requested and every one failed.
func (r Result) AllFailed() bool {
	if len(r.Feeds) == 0 {
		return false
	}
	for _, f := range r.Feeds {
		if !f.Failed() {
			return false
		}
	}
	return true
}

// Succeeded returns the feeds that answered, possibly with no episodes.
func (r Result) Succeeded() []FeedResult {
	var out []FeedResult
	for _, f := range r.Feeds {
		if !f.Failed() {
			out = append(out, f)
		}
	}
	return out
}

// Failures returns the feeds whose request failed.
func (r Result) Failures() []FeedResult {
	var out []FeedResult
	for _, f := range r.Feeds {
		if f.Failed() {
			out = append(out, f)
		}
	}
	return out
}

// Episode is a fetched episode tagged with the favorite it came from.
type Episode struct {
	podcastindex.Episode
	FeedName string `json:"feedName"`
}

// Episodes merges all fetched episodes, newest first. Episodes published at
// the same instant keep feed order.
func (r Result) Episodes() []Episode {
	var out []Episode
	for _, f := range r.Feeds {
		for _, ep := range f.Episodes {
			out = append(out, Episode{Episode: ep, FeedName: f.Feed.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DatePublished > out[j].DatePublished
	})
	return out
}

// Orchestrator runs batched episode lookups.
type Orchestrator struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
}

// New returns an Orchestrator; zero option values take the package defaults.
func New(fetcher Fetcher, opts Options) *Orchestrator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.ProgressThreshold <= 0 {
		opts.ProgressThreshold = DefaultProgressThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "recent"),
	}
}

// Fetch queries every feed and returns their results in input order. Per-feed
// failures are recorded, not returned. Cancelling ctx stops further batches;
// the results gathered so far are returned together with ctx.Err().
func (o *Orchestrator) Fetch(ctx context.Context, feeds []favorites.FavoriteFeed, params Params) (Result, error) {
	total := len(feeds)
	results := make([]FeedResult, total)
	reportProgress := o.opts.Progress != nil && total > o.opts.ProgressThreshold

	done := 0
	for start := 0; start < total; start += o.opts.MaxConcurrent {
		if start > 0 {
			if err := sleepWithContext(ctx, o.opts.BatchDelay); err != nil {
				return Result{Feeds: results[:done]}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return Result{Feeds: results[:done]}, err
		}

		end := min(start+o.opts.MaxConcurrent, total)
		o.runBatch(ctx, feeds[start:end], results[start:end], params)
		done = end

		o.logger.Debug("batch complete",
			logging.Int("done", done),
			logging.Int("total", total))
		if reportProgress {
			o.opts.Progress(done, total)
		}
		if err := ctx.Err(); err != nil {
			return Result{Feeds: results[:done]}, err
		}
	}
	return Result{Feeds: results}, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, feeds []favorites.FavoriteFeed, slots []FeedResult, params Params) {
	var g errgroup.Group
	for i := range feeds {
		g.Go(func() error {
			slots[i] = o.fetchOne(ctx, feeds[i], params)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) fetchOne(ctx context.Context, feed favorites.FavoriteFeed, params Params) FeedResult {
	ctx = services.WithFeedID(ctx, feed.FeedID)
	episodes, err := o.fetcher.EpisodesByFeedID(ctx, feed.FeedID, params.MaxPerFeed, params.Since)
	if err != nil {
		kind := podcastindex.Classify(err)
		logging.WithContext(ctx, o.logger).Warn("feed fetch failed",
			logging.String(logging.FieldEventType, "recent_feed_failed"),
			logging.String("name", feed.Name),
			logging.String("failure_kind", string(kind)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "episodes from this feed are missing from the listing"))
		return FeedResult{Feed: feed, Err: err, Kind: kind}
	}
	if params.MaxPerFeed > 0 && len(episodes) > params.MaxPerFeed {
		episodes = episodes[:params.MaxPerFeed]
	}
	return FeedResult{Feed: feed, Episodes: episodes}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
