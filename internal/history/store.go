package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pullapod/internal/config"
)

// Entry is one completed download.
type Entry struct {
	ID           int64     `json:"id"`
	GUID         string    `json:"guid"`
	AudioURL     string    `json:"audioUrl"`
	FeedTitle    string    `json:"feedTitle"`
	FeedURL      string    `json:"feedUrl"`
	EpisodeTitle string    `json:"episodeTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	FilePath     string    `json:"filePath"`
	SizeBytes    int64     `json:"sizeBytes"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// Store persists download history in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the history database under the configured data directory
// and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record stores a completed download. DownloadedAt defaults to now.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	entry.GUID = strings.TrimSpace(entry.GUID)
	entry.AudioURL = strings.TrimSpace(entry.AudioURL)
	if entry.GUID == "" && entry.AudioURL == "" {
		return Entry{}, errors.New("history: guid or audio url is required")
	}
	if entry.FilePath == "" {
		return Entry{}, errors.New("history: file path is required")
	}
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = s.now()
	}
	entry.DownloadedAt = entry.DownloadedAt.UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (
            guid, audio_url, feed_title, feed_url, episode_title,
            published_at, file_path, size_bytes, downloaded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.GUID,
		entry.AudioURL,
		entry.FeedTitle,
		entry.FeedURL,
		entry.EpisodeTitle,
		nullableTime(entry.PublishedAt),
		entry.FilePath,
		entry.SizeBytes,
		entry.DownloadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert download: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	return entry, nil
}

// Has reports whether an episode with guid or audioURL was downloaded before.
// Empty arguments never match.
func (s *Store) Has(ctx context.Context, guid, audioURL string) (bool, error) {
	guid = strings.TrimSpace(guid)
	audioURL = strings.TrimSpace(audioURL)
	if guid == "" && audioURL == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM downloads
         WHERE (? != '' AND guid = ?) OR (? != '' AND audio_url = ?)`,
		guid, guid, audioURL, audioURL,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query download: %w", err)
	}
	return count > 0, nil
}

// List returns the most recent downloads first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, guid, audio_url, feed_title, feed_url, episode_title,
            published_at, file_path, size_bytes, downloaded_at
        FROM downloads ORDER BY downloaded_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			published    sql.NullString
			downloadedAt string
		)
		if err := rows.Scan(&e.ID, &e.GUID, &e.AudioURL, &e.FeedTitle, &e.FeedURL, &e.EpisodeTitle,
			&published, &e.FilePath, &e.SizeBytes, &downloadedAt); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		e.PublishedAt = parseTime(published.String)
		e.DownloadedAt = parseTime(downloadedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}
	return entries, nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM downloads")
	if err != nil {
		return 0, fmt.Errorf("clear downloads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
