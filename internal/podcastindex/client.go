package podcastindex

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.podcastindex.org/api/1.0"
	defaultUserAgent   = "pullapod/1.0"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
)

// Config describes the Podcast Index client configuration.
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client wraps the Podcast Index REST API.
type Client struct {
	apiKey    string
	apiSecret string
	userAgent string
	baseURL   *url.URL
	http      *http.Client
	now       func() time.Time
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	apiSecret := strings.TrimSpace(cfg.APISecret)
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("podcastindex: api key and secret are required")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("podcastindex: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		userAgent: userAgent,
		baseURL:   baseURL,
		http:      client,
		now:       time.Now,
	}, nil
}

// Search finds podcasts matching term.
func (c *Client) Search(ctx context.Context, term string, max int) ([]Podcast, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("podcastindex: search term is required")
	}
	params := url.Values{}
	params.Set("q", term)
	setMax(params, max)

	var payload feedsResponse
	if err := c.get(ctx, "search/byterm", params, &payload); err != nil {
		return nil, err
	}
	return payload.Feeds, nil
}

// PodcastByFeedURL looks a podcast up by its feed URL.
func (c *Client) PodcastByFeedURL(ctx context.Context, feedURL string) (Podcast, error) {
	params := url.Values{}
	params.Set("url", strings.TrimSpace(feedURL))
	return c.podcast(ctx, "podcasts/byfeedurl", params)
}

// PodcastByFeedID looks a podcast up by its index id.
func (c *Client) PodcastByFeedID(ctx context.Context, feedID int64) (Podcast, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(feedID, 10))
	return c.podcast(ctx, "podcasts/byfeedid", params)
}

// Lookup resolves ref as a numeric feed id when it parses as one, and as a
// feed URL otherwise.
func (c *Client) Lookup(ctx context.Context, ref string) (Podcast, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return c.PodcastByFeedID(ctx, id)
	}
	return c.PodcastByFeedURL(ctx, ref)
}

func (c *Client) podcast(ctx context.Context, endpoint string, params url.Values) (Podcast, error) {
	var payload feedResponse
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return Podcast{}, err
	}
	var podcast Podcast
	if !decodeRecord(payload.Feed, &podcast) || podcast.ID == 0 {
		return Podcast{}, ErrNotFound
	}
	return podcast, nil
}

// EpisodesByFeedID lists up to max episodes of a feed published after since.
// A zero since disables the filter.
func (c *Client) EpisodesByFeedID(ctx context.Context, feedID int64, max int, since time.Time) ([]Episode, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(feedID, 10))
	setMax(params, max)
	if !since.IsZero() {
		params.Set("since", strconv.FormatInt(since.Unix(), 10))
	}

	var payload itemsResponse
	if err := c.get(ctx, "episodes/byfeedid", params, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// EpisodeByID fetches a single episode.
func (c *Client) EpisodeByID(ctx context.Context, episodeID int64) (Episode, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(episodeID, 10))

	var payload episodeResponse
	if err := c.get(ctx, "episodes/byid", params, &payload); err != nil {
		return Episode{}, err
	}
	var episode Episode
	if !decodeRecord(payload.Episode, &episode) || episode.ID == 0 {
		return Episode{}, ErrNotFound
	}
	return episode, nil
}

// TrendingRequest filters the trending feed list.
type TrendingRequest struct {
	Max        int
	Lang       string
	Categories []string
	Since      time.Time
}

// Trending lists podcasts currently trending on the index.
func (c *Client) Trending(ctx context.Context, req TrendingRequest) ([]Podcast, error) {
	params := url.Values{}
	setMax(params, req.Max)
	if lang := strings.TrimSpace(req.Lang); lang != "" {
		params.Set("lang", lang)
	}
	if len(req.Categories) > 0 {
		params.Set("cat", strings.Join(req.Categories, ","))
	}
	if !req.Since.IsZero() {
		params.Set("since", strconv.FormatInt(req.Since.Unix(), 10))
	}

	var payload feedsResponse
	if err := c.get(ctx, "podcasts/trending", params, &payload); err != nil {
		return nil, err
	}
	return payload.Feeds, nil
}

// RecentEpisodes lists the most recent episodes across the whole index.
func (c *Client) RecentEpisodes(ctx context.Context, max int) ([]Episode, error) {
	params := url.Values{}
	setMax(params, max)

	var payload itemsResponse
	if err := c.get(ctx, "recent/episodes", params, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c == nil {
		return errors.New("podcastindex: client is nil")
	}
	target := c.baseURL.JoinPath(endpoint)
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("podcastindex: build %s request: %w", endpoint, err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("podcastindex: %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("podcastindex: read %s response: %w", endpoint, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("podcastindex: decode %s response: %w", endpoint, err)
	}
	if env.failed() {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: env.Description}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("podcastindex: decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) applyHeaders(req *http.Request) {
	date := strconv.FormatInt(c.now().Unix(), 10)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Key", c.apiKey)
	req.Header.Set("X-Auth-Date", date)
	req.Header.Set("Authorization", authorization(c.apiKey, c.apiSecret, date))
}

// authorization computes the request signature.
func authorization(key, secret, date string) string {
	sum := sha1.Sum([]byte(key + secret + date))
	return hex.EncodeToString(sum[:])
}

func setMax(params url.Values, max int) {
	if max > 0 {
		params.Set("max", strconv.Itoa(max))
	}
}

// decodeRecord unmarshals an object payload. Empty arrays, null, and missing
// values report false.
func decodeRecord(raw json.RawMessage, out any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}
