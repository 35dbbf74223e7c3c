package testsupport

import (
	"context"
	"testing"

	"pullapod/internal/config"
	"pullapod/internal/favorites"
	"pullapod/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustFavorites builds a favorites service on the config's favorites file.
func MustFavorites(t testing.TB, cfg *config.Config) *favorites.Service {
	t.Helper()

	store, err := favorites.NewStore(favorites.Options{
		Path:          cfg.Paths.FavoritesFile,
		XDGConfigHome: cfg.Env.XDGConfigHome,
		HomeDir:       cfg.Env.HomeDir,
		TestMode:      true,
	})
	if err != nil {
		t.Fatalf("favorites.NewStore: %v", err)
	}
	return favorites.NewService(store)
}

// AddFavorite saves a feed for tests.
func AddFavorite(t testing.TB, svc *favorites.Service, name, url string, feedID int64) favorites.FavoriteFeed {
	t.Helper()

	res, err := svc.Add(context.Background(), favorites.FavoriteFeed{Name: name, URL: url, FeedID: feedID})
	if err != nil {
		t.Fatalf("favorites.Add: %v", err)
	}
	if !res.Added {
		t.Fatalf("favorites.Add: %s already present (%s)", name, res.Conflict)
	}
	return res.Feed
}
