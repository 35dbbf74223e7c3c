package favorites

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Options{
		Path:     filepath.Join(t.TempDir(), "favorites.json"),
		TestMode: true,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(newTestStore(t))
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func feed(name, url string, id int64) FavoriteFeed {
	return FavoriteFeed{Name: name, URL: url, FeedID: id}
}
