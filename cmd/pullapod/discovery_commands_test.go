package main

import (
	"encoding/json"
	"errors"
	"testing"

	"pullapod/internal/podcastindex"
	"pullapod/internal/services"
)

func TestSearchRendersTableAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/search/byterm", map[string]any{
		"status": "true",
		"feeds": []map[string]any{
			{"id": 1, "title": "Go Time", "author": "Changelog", "episodeCount": 300},
			{"id": 2, "title": "Go Podcast", "author": "Someone", "episodeCount": 12},
		},
	})

	out, _, err := env.run(t, "search", "go", "lang")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Go Time")
	requireContains(t, out, "Go Podcast")
	if q := env.api.Requests()[0].URL.Query().Get("q"); q != "go lang" {
		t.Fatalf("q = %q", q)
	}

	out, _, err = env.run(t, "--json", "search", "go", "--max", "2")
	if err != nil {
		t.Fatalf("search --json: %v", err)
	}
	var podcasts []podcastindex.Podcast
	if err := json.Unmarshal([]byte(out), &podcasts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(podcasts) != 2 || podcasts[0].Title != "Go Time" {
		t.Fatalf("unexpected podcasts: %+v", podcasts)
	}
}

func TestTrendingPassesFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/podcasts/trending", map[string]any{
		"status": "true",
		"feeds":  []map[string]any{{"id": 5, "title": "Hot Show"}},
	})

	out, _, err := env.run(t, "trending", "--max", "3", "--lang", "en", "--category", "News", "--category", "Tech")
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	requireContains(t, out, "Hot Show")
	query := env.api.Requests()[0].URL.Query()
	if query.Get("max") != "3" || query.Get("lang") != "en" || query.Get("cat") != "News,Tech" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestInfoShowsPodcastDetails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/podcasts/byfeedid", podcastPayload(77, "Detail Show", "https://d.example/rss"))

	out, _, err := env.run(t, "info", "77")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "== Detail Show ==")
	requireContains(t, out, "https://d.example/rss")
	requireContains(t, out, "Detail Show Author")
}

func TestEpisodesListsFeedEpisodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/podcasts/byfeedurl", podcastPayload(8, "Eight", "https://e.example/rss"))
	env.api.HandleJSON("/episodes/byfeedid", map[string]any{
		"status": "true",
		"items": []map[string]any{
			{"id": 1, "title": "Episode Eight", "datePublished": 1700000000, "duration": 90, "enclosureLength": 2048},
		},
	})

	out, _, err := env.run(t, "episodes", "https://e.example/rss", "--max", "1")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "Episode Eight")
	requireContains(t, out, "2023-11-14")
	requireContains(t, out, "1:30")
	requireContains(t, out, "2.0 KiB")
}

func TestEpisodeShowsDetails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/episodes/byid", map[string]any{
		"status": "true",
		"episode": map[string]any{
			"id":              9001,
			"title":           "Deep Dive",
			"feedTitle":       "Detail Show",
			"feedId":          77,
			"datePublished":   1700000000,
			"duration":        3725,
			"enclosureUrl":    "https://d.example/ep.mp3",
			"enclosureLength": 1048576,
		},
	})

	out, _, err := env.run(t, "episode", "9001")
	if err != nil {
		t.Fatalf("episode: %v", err)
	}
	requireContains(t, out, "== Deep Dive ==")
	requireContains(t, out, "Detail Show")
	requireContains(t, out, "1:02:05")
	requireContains(t, out, "1.0 MiB")
	if id := env.api.Requests()[0].URL.Query().Get("id"); id != "9001" {
		t.Fatalf("id = %q", id)
	}
}

func TestEpisodeRejectsBadIDAndReportsMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "episode", "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	env.api.HandleJSON("/episodes/byid", map[string]any{"status": "true", "episode": []any{}})
	if _, _, err := env.run(t, "episode", "5"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLatestListsIndexWideEpisodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.api.HandleJSON("/recent/episodes", map[string]any{
		"status": "true",
		"items": []map[string]any{
			{"id": 11, "title": "Fresh One", "feedTitle": "Show A", "datePublished": 1700000000},
			{"id": 12, "title": "Fresh Two", "feedTitle": "Show B", "datePublished": 1699990000},
		},
	})

	out, _, err := env.run(t, "latest", "--max", "2")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	requireContains(t, out, "Fresh One")
	requireContains(t, out, "Show B")
	if got := env.api.Requests()[0].URL.Query().Get("max"); got != "2" {
		t.Fatalf("max = %q", got)
	}
}
