package rssfeed

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Feed is a parsed podcast feed.
type Feed struct {
	Title       string
	Author      string
	Description string
	Link        string
	Image       string
	Language    string
	Episodes    []Episode
}

// Episode is one downloadable item.
type Episode struct {
	GUID        string
	Title       string
	Description string
	Published   time.Time
	AudioURL    string
	AudioType   string
	Length      int64
	Duration    time.Duration
	Season      int
	Number      int
	Image       string
}

// Parser fetches and parses feeds.
type Parser struct {
	parser *gofeed.Parser
}

// NewParser returns a Parser using client (http.DefaultClient when nil).
func NewParser(client *http.Client, userAgent string) *Parser {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		p.UserAgent = ua
	}
	return &Parser{parser: p}
}

// Parse downloads and parses the feed at feedURL.
func (p *Parser) Parse(ctx context.Context, feedURL string) (*Feed, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("rssfeed: feed url is required")
	}
	parsed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rssfeed: parse %s: %w", feedURL, err)
	}
	return convertFeed(parsed), nil
}

// ParseReader parses a feed document from r.
func (p *Parser) ParseReader(r io.Reader) (*Feed, error) {
	parsed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("rssfeed: parse feed: %w", err)
	}
	return convertFeed(parsed), nil
}

func convertFeed(src *gofeed.Feed) *Feed {
	out := &Feed{
		Title:       strings.TrimSpace(src.Title),
		Description: strings.TrimSpace(src.Description),
		Link:        src.Link,
		Language:    src.Language,
	}
	if src.Image != nil {
		out.Image = src.Image.URL
	}
	if src.ITunesExt != nil {
		out.Author = strings.TrimSpace(src.ITunesExt.Author)
		out.Image = cmp.Or(out.Image, src.ITunesExt.Image)
	}
	if out.Author == "" && len(src.Authors) > 0 && src.Authors[0] != nil {
		out.Author = strings.TrimSpace(src.Authors[0].Name)
	}

	out.Episodes = make([]Episode, 0, len(src.Items))
	for _, item := range src.Items {
		if ep, ok := convertItem(item); ok {
			out.Episodes = append(out.Episodes, ep)
		}
	}
	return out
}

func convertItem(item *gofeed.Item) (Episode, bool) {
	if item == nil {
		return Episode{}, false
	}
	enclosure := pickEnclosure(item.Enclosures)
	if enclosure == nil {
		return Episode{}, false
	}
	ep := Episode{
		GUID:        cmp.Or(strings.TrimSpace(item.GUID), enclosure.URL),
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		AudioURL:    enclosure.URL,
		AudioType:   enclosure.Type,
	}
	if item.PublishedParsed != nil {
		ep.Published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		ep.Published = item.UpdatedParsed.UTC()
	}
	if enclosure.Length != "" {
		if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
			ep.Length = length
		}
	}
	if item.Image != nil {
		ep.Image = item.Image.URL
	}
	applyITunes(&ep, item.ITunesExt)
	return ep, true
}

func applyITunes(ep *Episode, it *ext.ITunesItemExtension) {
	if it == nil {
		return
	}
	ep.Duration = parseDuration(it.Duration)
	ep.Season, _ = strconv.Atoi(strings.TrimSpace(it.Season))
	ep.Number, _ = strconv.Atoi(strings.TrimSpace(it.Episode))
	ep.Image = cmp.Or(ep.Image, it.Image)
}

// pickEnclosure prefers the first audio enclosure.
func pickEnclosure(enclosures []*gofeed.Enclosure) *gofeed.Enclosure {
	var first *gofeed.Enclosure
	for _, enc := range enclosures {
		if enc == nil || strings.TrimSpace(enc.URL) == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "audio/") {
			return enc
		}
		if first == nil {
			first = enc
		}
	}
	return first
}

// parseDuration reads itunes:duration values: plain seconds, MM:SS, or HH:MM:SS.
func parseDuration(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0
	}
	var total int
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}

// Selection narrows a feed's episodes.
type Selection struct {
	// Latest keeps only the newest N episodes when positive.
	Latest int
	// Match keeps episodes whose title contains it, case-insensitively.
	Match string
	// Since and Until bound the publish time: Since inclusive, Until exclusive.
	Since time.Time
	Until time.Time
}

// Select filters episodes by sel, newest first.
func Select(episodes []Episode, sel Selection) []Episode {
	sorted := slices.Clone(episodes)
	slices.SortStableFunc(sorted, func(a, b Episode) int {
		return b.Published.Compare(a.Published)
	})

	match := strings.ToLower(strings.TrimSpace(sel.Match))
	out := make([]Episode, 0, len(sorted))
	for _, ep := range sorted {
		if match != "" && !strings.Contains(strings.ToLower(ep.Title), match) {
			continue
		}
		if !sel.Since.IsZero() && ep.Published.Before(sel.Since) {
			continue
		}
		if !sel.Until.IsZero() && !ep.Published.Before(sel.Until) {
			continue
		}
		out = append(out, ep)
		if sel.Latest > 0 && len(out) == sel.Latest {
			break
		}
	}
	return out
}
