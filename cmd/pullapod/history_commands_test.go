package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"pullapod/internal/history"
	"pullapod/internal/services"
	"pullapod/internal/testsupport"
)

func seedHistory(t *testing.T, env *cliTestEnv, count int) {
	t.Helper()
	store := testsupport.MustOpenHistory(t, env.cfg)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range count {
		_, err := store.Record(context.Background(), history.Entry{
			GUID:         fmt.Sprintf("guid-%d", i),
			FeedTitle:    "Seeded Show",
			EpisodeTitle: fmt.Sprintf("Episode %d", i),
			FilePath:     fmt.Sprintf("/tmp/ep%d.mp3", i),
			SizeBytes:    2048,
			DownloadedAt: start.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
}

func TestHistoryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No downloads recorded yet.")
}

func TestHistoryListJSONHonoursLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistory(t, env, 3)

	out, _, err := env.run(t, "--json", "history", "list", "--limit", "2")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode output: %v (%q)", err, out)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EpisodeTitle != "Episode 2" {
		t.Fatalf("expected newest entry first, got %q", entries[0].EpisodeTitle)
	}
}

func TestHistoryListRejectsLimit(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "history", "list", "-n", "0")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryClearJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistory(t, env, 2)

	out, _, err := env.run(t, "--json", "history", "clear")
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, `"removed": 2`)
}
