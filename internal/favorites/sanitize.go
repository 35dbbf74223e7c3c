package favorites

import (
	"strings"

	"pullapod/internal/textutil"
)

// SanitizeName normalizes a display name before it is stored.
func SanitizeName(name string) string {
	return textutil.SanitizeName(name)
}

// normalizeFeed validates feed for insertion. It fills DateAdded from now
// when empty.
func normalizeFeed(feed FavoriteFeed, now func() string) (FavoriteFeed, error) {
	feed.Name = SanitizeName(feed.Name)
	if feed.Name == "" {
		return FavoriteFeed{}, ErrInvalidName
	}
	if feed.FeedID <= 0 {
		return FavoriteFeed{}, ErrInvalidFeedID
	}
	feed.URL = strings.TrimSpace(feed.URL)
	if feed.URL == "" {
		return FavoriteFeed{}, ErrInvalidURL
	}
	if strings.TrimSpace(feed.DateAdded) == "" {
		feed.DateAdded = now()
	}
	return feed, nil
}
