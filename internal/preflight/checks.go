package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"pullapod/internal/config"
	"pullapod/internal/podcastindex"
)

// CheckPodcastIndex verifies that the API is reachable and the credentials
// are accepted. It uses a 10-second timeout and a single attempt.
func CheckPodcastIndex(ctx context.Context, cfg config.PodcastIndex) Result {
	const name = "Podcast Index"

	client, err := podcastindex.New(podcastindex.Config{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   10 * time.Second,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := client.Trending(checkCtx, podcastindex.TrendingRequest{Max: 1}); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

func summarizeAPIError(err error) string {
	var apiErr *podcastindex.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return "auth failed (invalid api key or secret)"
		case apiErr.RateLimited():
			return "rate limited (try again shortly)"
		default:
			return fmt.Sprintf("request failed (%d)", apiErr.StatusCode)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout (API not responding)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "unreachable (check network)"
	}
	return err.Error()
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := accessReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available to unprivileged users. A zero minimum always passes.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	available, err := freeBytes(path)
	if err != nil {
		if errors.Is(err, errUnsupported) {
			return Result{Name: name, Passed: true, Detail: "not checked on this platform"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if available < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, %s required", humanize.IBytes(available), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(available))}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
