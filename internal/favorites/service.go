package favorites

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pullapod/internal/logging"
)

// Conflict names the dedupe key an Add collided on.
type Conflict string

const (
	ConflictNone   Conflict = ""
	ConflictURL    Conflict = "url"
	ConflictFeedID Conflict = "feedId"
)

// AddResult reports the outcome of Service.Add.
type AddResult struct {
	Added    bool          `json:"added"`
	Feed     FavoriteFeed  `json:"feed"`
	Existing *FavoriteFeed `json:"existing,omitempty"`
	Conflict Conflict      `json:"conflict,omitempty"`
}

// RemoveResult reports the outcome of Service.Remove.
type RemoveResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// Service implements the favorites operations on top of a Store. Each call
// re-reads the document; nothing is cached between calls.
type Service struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService wraps store.
func NewService(store *Store) *Service {
	return &Service{store: store, logger: store.logger, now: time.Now}
}

// Path returns the underlying favorites file path.
func (s *Service) Path() string {
	return s.store.Path()
}

// Add saves feed unless its URL (case-insensitive) or feed id is already
// present. URL collisions are checked first.
func (s *Service) Add(ctx context.Context, feed FavoriteFeed) (AddResult, error) {
	feed, err := normalizeFeed(feed, func() string { return FormatDate(s.now()) })
	if err != nil {
		return AddResult{}, err
	}

	var result AddResult
	err = s.store.Update(ctx, func(doc *Document) (bool, error) {
		if existing, conflict := findDuplicate(doc.Feeds, feed); conflict != ConflictNone {
			result = AddResult{Feed: feed, Existing: &existing, Conflict: conflict}
			return false, nil
		}
		doc.Feeds = append(doc.Feeds, feed)
		result = AddResult{Added: true, Feed: feed}
		return true, nil
	})
	if err != nil {
		return AddResult{}, err
	}

	if result.Added {
		s.logger.Info("added favorite",
			logging.String(logging.FieldEventType, "favorite_added"),
			logging.Int64(logging.FieldFeedID, feed.FeedID),
			logging.String("name", feed.Name))
	} else {
		s.logger.Debug("favorite already present",
			logging.Int64(logging.FieldFeedID, feed.FeedID),
			logging.String("conflict", string(result.Conflict)))
	}
	return result, nil
}

func findDuplicate(feeds []FavoriteFeed, candidate FavoriteFeed) (FavoriteFeed, Conflict) {
	for _, f := range feeds {
		if strings.EqualFold(f.URL, candidate.URL) {
			return f, ConflictURL
		}
	}
	for _, f := range feeds {
		if f.FeedID == candidate.FeedID {
			return f, ConflictFeedID
		}
	}
	return FavoriteFeed{}, ConflictNone
}

// FindMatches looks up favorites by query, case-insensitively. An exact URL
// match wins, then an exact name match; otherwise every feed whose name
// contains the query is returned.
func (s *Service) FindMatches(ctx context.Context, query string) ([]FavoriteFeed, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return matchFeeds(doc.Feeds, query), nil
}

func matchFeeds(feeds []FavoriteFeed, query string) []FavoriteFeed {
	lowered := strings.ToLower(query)
	for _, f := range feeds {
		if strings.ToLower(f.URL) == lowered {
			return []FavoriteFeed{f}
		}
	}
	for _, f := range feeds {
		if strings.ToLower(f.Name) == lowered {
			return []FavoriteFeed{f}
		}
	}
	var matches []FavoriteFeed
	for _, f := range feeds {
		if strings.Contains(strings.ToLower(f.Name), lowered) {
			matches = append(matches, f)
		}
	}
	return matches
}

// Remove deletes every entry sharing feed's id. The file is only rewritten
// when something was removed.
func (s *Service) Remove(ctx context.Context, feed FavoriteFeed) (RemoveResult, error) {
	var result RemoveResult
	err := s.store.Update(ctx, func(doc *Document) (bool, error) {
		kept := doc.Feeds[:0:0]
		for _, f := range doc.Feeds {
			if f.FeedID == feed.FeedID {
				continue
			}
			kept = append(kept, f)
		}
		result = RemoveResult{Removed: len(doc.Feeds) - len(kept), Remaining: len(kept)}
		doc.Feeds = kept
		return result.Removed > 0, nil
	})
	if err != nil {
		return RemoveResult{}, err
	}
	if result.Removed > 0 {
		s.logger.Info("removed favorite",
			logging.String(logging.FieldEventType, "favorite_removed"),
			logging.Int64(logging.FieldFeedID, feed.FeedID),
			logging.Int("remaining", result.Remaining))
	}
	return result, nil
}

// Clear empties the list and returns how many feeds it held. An empty or
// missing store is left untouched.
func (s *Service) Clear(ctx context.Context) (int, error) {
	var prior int
	err := s.store.Update(ctx, func(doc *Document) (bool, error) {
		prior = len(doc.Feeds)
		if prior == 0 {
			return false, nil
		}
		*doc = NewDocument()
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if prior > 0 {
		s.logger.Info("cleared favorites",
			logging.String(logging.FieldEventType, "favorites_cleared"),
			logging.Int("removed", prior))
	}
	return prior, nil
}

// Reset writes an empty document without reading the current file.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("reset favorites",
		logging.String(logging.FieldEventType, "favorites_reset"),
		logging.String(logging.FieldPath, s.store.Path()))
	return nil
}

// List returns all favorites, most recently added first. Ties keep file order.
func (s *Service) List(ctx context.Context) ([]FavoriteFeed, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	feeds := make([]FavoriteFeed, len(doc.Feeds))
	copy(feeds, doc.Feeds)
	sort.SliceStable(feeds, func(i, j int) bool {
		return feeds[i].AddedAt().After(feeds[j].AddedAt())
	})
	return feeds, nil
}

// Count returns the number of saved feeds.
func (s *Service) Count(ctx context.Context) (int, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(doc.Feeds), nil
}

// Rename changes the display name of the favorite with feedID.
func (s *Service) Rename(ctx context.Context, feedID int64, newName string) (FavoriteFeed, error) {
	name := SanitizeName(newName)
	if name == "" {
		return FavoriteFeed{}, ErrInvalidName
	}
	var renamed FavoriteFeed
	err := s.store.Update(ctx, func(doc *Document) (bool, error) {
		for i := range doc.Feeds {
			if doc.Feeds[i].FeedID != feedID {
				continue
			}
			if doc.Feeds[i].Name == name {
				renamed = doc.Feeds[i]
				return false, nil
			}
			doc.Feeds[i].Name = name
			renamed = doc.Feeds[i]
			return true, nil
		}
		return false, ErrFeedNotFound
	})
	if err != nil {
		return FavoriteFeed{}, err
	}
	s.logger.Info("renamed favorite",
		logging.String(logging.FieldEventType, "favorite_renamed"),
		logging.Int64(logging.FieldFeedID, feedID),
		logging.String("name", name))
	return renamed, nil
}
