package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullapod/internal/config"
	"pullapod/internal/favorites"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The API check only runs when credentials are configured.
func RunAll(ctx context.Context, cfg *config.Config, favoritesPath string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	results = append(results, CheckFreeSpace("Download free space", cfg.Paths.DownloadDir, uint64(cfg.Download.MinFreeMiB)<<20))

	if favoritesPath != "" {
		results = append(results, CheckFavorites(ctx, favoritesPath))
	}

	if cfg.RequireAPICredentials() == nil {
		results = append(results, CheckPodcastIndex(ctx, cfg.PodcastIndex))
	} else {
		results = append(results, Result{Name: "Podcast Index", Detail: "API key or secret missing"})
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckFavorites verifies the favorites file parses without modifying it. A
// missing file passes.
func CheckFavorites(ctx context.Context, path string) Result {
	const name = "Favorites file"
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: formatCount(0, "feed")}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	doc, err := favorites.DecodeDocument(data)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v); %s", path, err, favorites.ResetHint)}
	}
	return Result{Name: name, Passed: true, Detail: formatCount(len(doc.Feeds), "feed")}
}
