package podcastindex

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Podcast is a feed record as returned by the search, lookup, and trending
// endpoints.
type Podcast struct {
	ID                    int64             `json:"id"`
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	OriginalURL           string            `json:"originalUrl"`
	Link                  string            `json:"link"`
	Description           string            `json:"description"`
	Author                string            `json:"author"`
	OwnerName             string            `json:"ownerName"`
	Image                 string            `json:"image"`
	Artwork               string            `json:"artwork"`
	Language              string            `json:"language"`
	Categories            map[string]string `json:"categories"`
	EpisodeCount          int               `json:"episodeCount"`
	LastUpdateTime        int64             `json:"lastUpdateTime"`
	NewestItemPublishTime int64             `json:"newestItemPublishTime"`
	ItunesID              int64             `json:"itunesId"`
	TrendScore            int               `json:"trendScore"`
}

// LastUpdated returns the feed's last update time, or the zero time.
func (p Podcast) LastUpdated() time.Time {
	return unixTime(p.LastUpdateTime)
}

// CategoryNames returns the category labels in a stable order.
func (p Podcast) CategoryNames() []string {
	if len(p.Categories) == 0 {
		return nil
	}
	names := make([]string, 0, len(p.Categories))
	for _, name := range p.Categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Episode is an item record as returned by the episode endpoints.
type Episode struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Link            string `json:"link"`
	Description     string `json:"description"`
	GUID            string `json:"guid"`
	DatePublished   int64  `json:"datePublished"`
	EnclosureURL    string `json:"enclosureUrl"`
	EnclosureType   string `json:"enclosureType"`
	EnclosureLength int64  `json:"enclosureLength"`
	Duration        int    `json:"duration"`
	Explicit        int    `json:"explicit"`
	Episode         int    `json:"episode"`
	Season          int    `json:"season"`
	Image           string `json:"image"`
	FeedImage       string `json:"feedImage"`
	FeedID          int64  `json:"feedId"`
	FeedTitle       string `json:"feedTitle"`
	FeedLanguage    string `json:"feedLanguage"`
}

// Published returns the publish time in UTC, or the zero time.
func (e Episode) Published() time.Time {
	return unixTime(e.DatePublished)
}

// DurationValue returns the episode length as a time.Duration.
func (e Episode) DurationValue() time.Duration {
	return time.Duration(e.Duration) * time.Second
}

func unixTime(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}

// apiStatus accepts both "true" and true; the API has used both.
type apiStatus bool

func (s *apiStatus) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = apiStatus(b)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = apiStatus(strings.EqualFold(strings.TrimSpace(str), "true"))
	return nil
}

type envelope struct {
	Status      *apiStatus `json:"status"`
	Description string     `json:"description"`
}

type feedsResponse struct {
	envelope
	Feeds []Podcast `json:"feeds"`
	Count int       `json:"count"`
}

type feedResponse struct {
	envelope
	// Feed is an object when found and an empty array when not.
	Feed json.RawMessage `json:"feed"`
}

type itemsResponse struct {
	envelope
	Items []Episode `json:"items"`
	Count int       `json:"count"`
}

type episodeResponse struct {
	envelope
	Episode json.RawMessage `json:"episode"`
}

func (e envelope) failed() bool {
	return e.Status != nil && !bool(*e.Status)
}
