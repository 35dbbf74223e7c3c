package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"pullapod/internal/fileutil"
	"pullapod/internal/history"
	"pullapod/internal/logging"
	"pullapod/internal/preflight"
	"pullapod/internal/rssfeed"
	"pullapod/internal/services"
	"pullapod/internal/textutil"
)

const (
	lockFileName       = ".pullapod.lock"
	partSuffix         = ".part"
	defaultLockTimeout = 2 * time.Second
	defaultHTTPTimeout = 30 * time.Minute
	progressLabelRunes = 40
)

// ErrDirectoryBusy reports another download run holding the directory lock.
var ErrDirectoryBusy = errors.New("another pullapod download is writing to this directory")

// Recorder is the subset of the history store the downloader needs.
type Recorder interface {
	Has(ctx context.Context, guid, audioURL string) (bool, error)
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Options configures a Downloader.
type Options struct {
	Dir          string
	TagAudio     bool
	Overwrite    bool
	MinFreeBytes uint64
	HTTPClient   *http.Client
	UserAgent    string
	// Progress receives progress bars; nil disables them.
	Progress    io.Writer
	History     Recorder
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Item is one episode to download.
type Item struct {
	PodcastTitle  string
	PodcastAuthor string
	FeedURL       string
	Episode       rssfeed.Episode
}

// Request is a batch of episodes sharing one output directory.
type Request struct {
	Items []Item
}

// Status is the outcome of one item.
type Status string

const (
	StatusDownloaded     Status = "downloaded"
	StatusSkippedExists  Status = "skipped_exists"
	StatusSkippedHistory Status = "skipped_history"
	StatusFailed         Status = "failed"
)

// ItemResult reports what happened to one item.
type ItemResult struct {
	Item       Item
	Path       string
	Status     Status
	Bytes      int64
	Err        error
	TagWarning error
}

// Result collects the per-item outcomes of a batch.
type Result struct {
	Items []ItemResult
}

// Count returns how many items ended with status.
func (r Result) Count(status Status) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Downloader fetches episodes into a directory.
type Downloader struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// New returns a Downloader for opts.
func New(opts Options) *Downloader {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Downloader{
		opts:   opts,
		client: client,
		logger: logging.NewComponentLogger(logger, "download"),
	}
}

// Download fetches every item in req. Per-item failures are reported in the
// result; the returned error covers preflight, locking, and cancellation.
func (d *Downloader) Download(ctx context.Context, req Request) (Result, error) {
	dir := d.opts.Dir
	if strings.TrimSpace(dir) == "" {
		return Result{}, services.Validationf("download directory is required")
	}
	if err := fileutil.EnsureDir(dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "download", "prepare", "cannot create download directory", err)
	}
	if err := d.preflight(dir); err != nil {
		return Result{}, err
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, d.opts.LockTimeout)
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	cancel()
	if err != nil && ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return Result{}, services.Wrap(services.ErrTransient, "download", "lock", dir, err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrTransient, "download", "lock", dir, ErrDirectoryBusy)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release download lock", logging.Error(err))
		}
	}()

	var result Result
	for _, item := range req.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := d.downloadOne(ctx, dir, item)
		result.Items = append(result.Items, res)
	}
	return result, nil
}

func (d *Downloader) preflight(dir string) error {
	checks := []preflight.Result{
		preflight.CheckDirectoryAccess("Download directory", dir),
		preflight.CheckFreeSpace("Free space", dir, d.opts.MinFreeBytes),
	}
	failed := preflight.Failed(checks)
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "download", "preflight", failed[0].Name+": "+failed[0].Detail, nil)
}

func (d *Downloader) downloadOne(ctx context.Context, dir string, item Item) ItemResult {
	ep := item.Episode
	name := FileName(item.PodcastTitle, ep.Published, ep.Title, ep.AudioURL, ep.AudioType)
	target := filepath.Join(dir, name)
	res := ItemResult{Item: item, Path: target}
	logger := d.logger.With(
		logging.String("episode", ep.Title),
		logging.String(logging.FieldFeedURL, item.FeedURL),
		logging.String(logging.FieldPath, target))

	if !d.opts.Overwrite {
		if fileutil.Exists(target) {
			logger.Info("episode already on disk", logging.String(logging.FieldEventType, "download_skipped"))
			res.Status = StatusSkippedExists
			return res
		}
		if d.opts.History != nil {
			seen, err := d.opts.History.Has(ctx, ep.GUID, ep.AudioURL)
			if err != nil {
				logging.WarnWithContext(logger, "history lookup failed", "download_history_lookup_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "episode downloaded without the history check"))
			} else if seen {
				logger.Info("episode downloaded previously", logging.String(logging.FieldEventType, "download_skipped"))
				res.Status = StatusSkippedHistory
				return res
			}
		}
	}

	written, err := d.fetch(ctx, ep.AudioURL, target, name)
	if err != nil {
		logger.Error("download failed", logging.String(logging.FieldEventType, "download_failed"), logging.Error(err))
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	res.Status = StatusDownloaded
	res.Bytes = written

	if d.opts.TagAudio && isMP3(target, ep.AudioType) {
		if err := WriteTags(target, tagInfo(item)); err != nil {
			logging.WarnWithContext(logger, "failed to tag episode", "download_tag_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "file kept without ID3 metadata"))
			res.TagWarning = err
		}
	}

	if d.opts.History != nil {
		_, err := d.opts.History.Record(ctx, history.Entry{
			GUID:         ep.GUID,
			AudioURL:     ep.AudioURL,
			FeedTitle:    item.PodcastTitle,
			FeedURL:      item.FeedURL,
			EpisodeTitle: ep.Title,
			PublishedAt:  ep.Published,
			FilePath:     target,
			SizeBytes:    written,
		})
		if err != nil {
			logging.WarnWithContext(logger, "failed to record download", "download_history_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "episode may be downloaded again next time"))
		}
	}

	logger.Info("downloaded episode",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("size", humanize.IBytes(uint64(written))))
	return res
}

// fetch streams audioURL into a .part file next to target and renames it
// into place once the body is fully written.
func (d *Downloader) fetch(ctx context.Context, audioURL, target, label string) (int64, error) {
	if strings.TrimSpace(audioURL) == "" {
		return 0, errors.New("episode has no audio url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("request audio: unexpected status %s", resp.Status)
	}

	part := target + "." + uuid.NewString() + partSuffix
	out, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create part file: %w", err)
	}
	cleanup := func() {
		_ = out.Close()
		_ = os.Remove(part)
	}

	var dst io.Writer = out
	var bar *progressbar.ProgressBar
	if d.opts.Progress != nil {
		bar = progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(d.opts.Progress),
			progressbar.OptionSetDescription(textutil.Truncate(label, progressLabelRunes)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
		dst = io.MultiWriter(out, bar)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("write audio: %w", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		cleanup()
		return 0, fmt.Errorf("write audio: got %d of %d bytes", written, resp.ContentLength)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(part)
		return 0, fmt.Errorf("close part file: %w", err)
	}
	if err := os.Rename(part, target); err != nil {
		_ = os.Remove(part)
		return 0, fmt.Errorf("move into place: %w", err)
	}
	return written, nil
}

func tagInfo(item Item) TagInfo {
	ep := item.Episode
	info := TagInfo{
		Title:  ep.Title,
		Artist: item.PodcastAuthor,
		Album:  item.PodcastTitle,
		GUID:   ep.GUID,
		Track:  ep.Number,
	}
	if info.Artist == "" {
		info.Artist = item.PodcastTitle
	}
	if !ep.Published.IsZero() {
		info.Year = ep.Published.Year()
	}
	return info
}
