package download_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/gofrs/flock"

	"pullapod/internal/download"
	"pullapod/internal/history"
	"pullapod/internal/rssfeed"
	"pullapod/internal/services"
	"pullapod/internal/testsupport"
)

type memoryHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memoryHistory) Has(_ context.Context, guid, audioURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if (guid != "" && e.GUID == guid) || e.AudioURL == audioURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryHistory) Record(_ context.Context, entry history.Entry) (history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return entry, nil
}

func newAudioServer(t *testing.T, payload []byte) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		switch r.URL.Path {
		case "/missing.mp3":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write(payload)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func item(srv *httptest.Server, path, guid, title string) download.Item {
	return download.Item{
		PodcastTitle:  "Test Cast",
		PodcastAuthor: "Host Person",
		FeedURL:       srv.URL + "/feed.xml",
		Episode: rssfeed.Episode{
			GUID:      guid,
			Title:     title,
			Published: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
			AudioURL:  srv.URL + path,
			AudioType: "audio/mpeg",
			Number:    7,
		},
	}
}

func TestDownloadWritesFileAndHistory(t *testing.T) {
	payload := testsupport.AudioPayload(64 * 1024)
	srv, _ := newAudioServer(t, payload)
	dir := t.TempDir()
	hist := &memoryHistory{}

	d := download.New(download.Options{Dir: dir, History: hist})
	res, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep1.mp3", "guid-1", "First Episode"),
	}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Status != download.StatusDownloaded {
		t.Fatalf("unexpected result: %+v", res.Items)
	}
	want := filepath.Join(dir, "Test Cast - 2024-05-02 - First Episode.mp3")
	if res.Items[0].Path != want {
		t.Fatalf("path = %q, want %q", res.Items[0].Path, want)
	}
	if res.Items[0].Bytes != int64(len(payload)) {
		t.Fatalf("bytes = %d, want %d", res.Items[0].Bytes, len(payload))
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(data, payload[:128]) {
		t.Fatal("downloaded file does not contain the served audio")
	}
	if len(hist.entries) != 1 || hist.entries[0].GUID != "guid-1" || hist.entries[0].FilePath != want {
		t.Fatalf("history = %+v", hist.entries)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(matches) != 0 {
		t.Fatalf("leftover part files: %v", matches)
	}
}

func TestDownloadTagsMP3(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(8*1024))
	dir := t.TempDir()

	d := download.New(download.Options{Dir: dir, TagAudio: true})
	res, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep1.mp3", "guid-1", "Tagged Episode"),
	}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Items[0].TagWarning != nil {
		t.Fatalf("tag warning: %v", res.Items[0].TagWarning)
	}

	tag, err := id3v2.Open(res.Items[0].Path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open tag: %v", err)
	}
	defer tag.Close()
	if tag.Title() != "Tagged Episode" {
		t.Fatalf("title = %q", tag.Title())
	}
	if tag.Album() != "Test Cast" || tag.Artist() != "Host Person" {
		t.Fatalf("album/artist = %q/%q", tag.Album(), tag.Artist())
	}
	if tag.Year() != "2024" {
		t.Fatalf("year = %q", tag.Year())
	}
}

func TestDownloadSkipsExistingAndHistory(t *testing.T) {
	srv, hits := newAudioServer(t, testsupport.AudioPayload(1024))
	dir := t.TempDir()
	hist := &memoryHistory{}
	hist.entries = append(hist.entries, history.Entry{GUID: "guid-2", AudioURL: srv.URL + "/ep2.mp3"})

	first := item(srv, "/ep1.mp3", "guid-1", "Already Here")
	testsupport.WriteFile(t, filepath.Join(dir, "Test Cast - 2024-05-02 - Already Here.mp3"), []byte("local"))

	d := download.New(download.Options{Dir: dir, History: hist})
	res, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		first,
		item(srv, "/ep2.mp3", "guid-2", "Seen Before"),
	}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Items[0].Status != download.StatusSkippedExists {
		t.Fatalf("first status = %s", res.Items[0].Status)
	}
	if res.Items[1].Status != download.StatusSkippedHistory {
		t.Fatalf("second status = %s", res.Items[1].Status)
	}
	if *hits != 0 {
		t.Fatalf("server hit %d times, want 0", *hits)
	}
}

func TestDownloadOverwriteReplacesFile(t *testing.T) {
	payload := testsupport.AudioPayload(2048)
	srv, _ := newAudioServer(t, payload)
	dir := t.TempDir()
	target := filepath.Join(dir, "Test Cast - 2024-05-02 - Again.mp3")
	testsupport.WriteFile(t, target, []byte("stale"))

	d := download.New(download.Options{Dir: dir, Overwrite: true})
	res, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep.mp3", "guid-1", "Again"),
	}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Items[0].Status != download.StatusDownloaded {
		t.Fatalf("status = %s", res.Items[0].Status)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != int64(len(payload)) {
		t.Fatalf("size = %d, want %d", info.Size(), len(payload))
	}
}

func TestDownloadReportsPerItemFailure(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(1024))
	dir := t.TempDir()
	hist := &memoryHistory{}

	d := download.New(download.Options{Dir: dir, History: hist})
	res, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/missing.mp3", "guid-1", "Gone"),
		item(srv, "/ok.mp3", "guid-2", "Fine"),
	}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Items[0].Status != download.StatusFailed || res.Items[0].Err == nil {
		t.Fatalf("first item = %+v", res.Items[0])
	}
	if !strings.Contains(res.Items[0].Err.Error(), "404") {
		t.Fatalf("error = %v", res.Items[0].Err)
	}
	if res.Items[1].Status != download.StatusDownloaded {
		t.Fatalf("second status = %s", res.Items[1].Status)
	}
	if res.Count(download.StatusFailed) != 1 || res.Count(download.StatusDownloaded) != 1 {
		t.Fatalf("counts: %+v", res.Items)
	}
	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist.entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "Test Cast - 2024-05-02 - Gone.mp3")); !os.IsNotExist(err) {
		t.Fatalf("failed download left a file: %v", err)
	}
}

func TestDownloadDirectoryBusy(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(1024))
	dir := t.TempDir()

	held := flock.New(filepath.Join(dir, ".pullapod.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: %v %v", locked, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	d := download.New(download.Options{Dir: dir, LockTimeout: 150 * time.Millisecond})
	_, err = d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep.mp3", "guid-1", "Blocked"),
	}})
	if !errors.Is(err, download.ErrDirectoryBusy) {
		t.Fatalf("expected ErrDirectoryBusy, got %v", err)
	}
}

func TestDownloadLockFailureIsNotReportedAsBusy(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(1024))
	dir := t.TempDir()
	// The lock file cannot be created through a link into a missing directory.
	if err := os.Symlink(filepath.Join(dir, "missing", "lock"), filepath.Join(dir, ".pullapod.lock")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	d := download.New(download.Options{Dir: dir, LockTimeout: time.Second})
	_, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep.mp3", "guid-1", "Unlockable"),
	}})
	if err == nil {
		t.Fatal("expected lock error")
	}
	if errors.Is(err, download.ErrDirectoryBusy) {
		t.Fatalf("lock failure should not be reported as busy: %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying open error to be wrapped, got %v", err)
	}
}

func TestDownloadFreeSpacePreflight(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(1024))
	d := download.New(download.Options{Dir: t.TempDir(), MinFreeBytes: 1 << 62})
	_, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep.mp3", "guid-1", "Too Big"),
	}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDownloadUsesRealHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	srv, hits := newAudioServer(t, testsupport.AudioPayload(1024))
	items := []download.Item{item(srv, "/ep.mp3", "guid-1", "Once")}

	first := download.New(download.Options{Dir: cfg.Paths.DownloadDir, History: store})
	if _, err := first.Download(context.Background(), download.Request{Items: items}); err != nil {
		t.Fatalf("first Download: %v", err)
	}
	if err := os.Remove(filepath.Join(cfg.Paths.DownloadDir, "Test Cast - 2024-05-02 - Once.mp3")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	second := download.New(download.Options{Dir: cfg.Paths.DownloadDir, History: store})
	res, err := second.Download(context.Background(), download.Request{Items: items})
	if err != nil {
		t.Fatalf("second Download: %v", err)
	}
	if res.Items[0].Status != download.StatusSkippedHistory {
		t.Fatalf("status = %s", res.Items[0].Status)
	}
	if *hits != 1 {
		t.Fatalf("server hits = %d, want 1", *hits)
	}
}

func TestDownloadProgressOutput(t *testing.T) {
	srv, _ := newAudioServer(t, testsupport.AudioPayload(4096))
	var progress bytes.Buffer
	d := download.New(download.Options{Dir: t.TempDir(), Progress: &progress})
	if _, err := d.Download(context.Background(), download.Request{Items: []download.Item{
		item(srv, "/ep.mp3", "guid-1", "Shown"),
	}}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if progress.Len() == 0 {
		t.Fatal("expected progress output")
	}
}
