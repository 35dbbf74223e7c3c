package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pullapod/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// PodcastIndex contains credentials and transport settings for the Podcast Index API.
type PodcastIndex struct {
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Paths contains file and directory locations.
type Paths struct {
	// FavoritesFile overrides the resolved favorites.json location. It must
	// live inside one of the per-user config directories.
	FavoritesFile string `toml:"favorites_file"`
	DownloadDir   string `toml:"download_dir"`
	DataDir       string `toml:"data_dir"`
}

// Download contains settings for episode downloads.
type Download struct {
	TagAudio   bool `toml:"tag_audio"`
	Overwrite  bool `toml:"overwrite"`
	MinFreeMiB int  `toml:"min_free_mib"`
}

// Recent contains settings for the recent-episodes fan-out.
type Recent struct {
	MaxConcurrent     int `toml:"max_concurrent"`
	BatchDelayMS      int `toml:"batch_delay_ms"`
	ProgressThreshold int `toml:"progress_threshold"`
	DefaultMax        int `toml:"default_max"`
	DefaultDays       int `toml:"default_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Environment holds process environment values captured at load time.
type Environment struct {
	XDGConfigHome string
	HomeDir       string
}

// Config encapsulates all configuration values for pullapod.
//
// Configuration sections by subsystem:
//   - PodcastIndex: API credentials, base URL, and request timeout
//   - Paths: favorites override, download and data directories
//   - Download: tagging, overwrite policy, free-space floor
//   - Recent: batch size, pacing, and defaults for the recent command
//   - Logging: log format and level
type Config struct {
	PodcastIndex PodcastIndex `toml:"podcastindex"`
	Paths        Paths        `toml:"paths"`
	Download     Download     `toml:"download"`
	Recent       Recent       `toml:"recent"`
	Logging      Logging      `toml:"logging"`

	Env Environment `toml:"-"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/pullapod/config.toml, falling
// back to ~/.config when the variable is unset.
func DefaultConfigPath() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		base = "~/.config"
	}
	return expandPath(filepath.Join(base, "pullapod", "config.toml"))
}

// Load reads the config at path (or the default location when path is empty),
// applies environment overrides and validates the result. It also reports the
// resolved path and whether a file existed there; a missing file yields the
// defaults. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	exists, err := decodeFile(resolved, &cfg)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfigPath()
	}
	return expandPath(path)
}

func decodeFile(path string, cfg *Config) (bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.IsDir() {
		return false, fmt.Errorf("open config: %s is a directory", path)
	}

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return true, fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			row, col := decErr.Position()
			return true, fmt.Errorf("parse config %s: line %d column %d: %w", path, row, col, err)
		}
		return true, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

// RequireAPICredentials reports a configuration error when the Podcast Index
// key or secret is missing. Only commands that talk to the API call it.
func (c *Config) RequireAPICredentials() error {
	var missing []string
	if strings.TrimSpace(c.PodcastIndex.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if strings.TrimSpace(c.PodcastIndex.APISecret) == "" {
		missing = append(missing, "api_secret")
	}
	if len(missing) == 0 {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/pullapod/config.toml"
	}
	message := fmt.Sprintf(
		"podcastindex.%s missing. Get free credentials at https://api.podcastindex.org, then set PODCASTINDEX_API_KEY and PODCASTINDEX_API_SECRET or edit %s (create with 'pullapod config init')",
		strings.Join(missing, " and podcastindex."), defaultPath)
	return services.Wrap(services.ErrConfiguration, "config", "", message, nil)
}

// RequestTimeout returns the Podcast Index HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.PodcastIndex.TimeoutSeconds) * time.Second
}

// BatchDelay returns the pause inserted between recent-episode batches.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Recent.BatchDelayMS) * time.Millisecond
}

// HistoryPath returns the download history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// EnsureDirectories creates the data directory used for download history.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.DataDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath resolves a leading ~ and makes p absolute.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "pullapod")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/pullapod"
	}
	return filepath.Join(home, ".local", "share", "pullapod")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
