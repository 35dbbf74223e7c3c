package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.captureEnvironment()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePodcastIndex()
	c.normalizeRecent()
	c.normalizeLogging()
	return nil
}

func (c *Config) captureEnvironment() {
	if value, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		c.Env.XDGConfigHome = strings.TrimSpace(value)
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.Env.HomeDir = home
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.FavoritesFile = strings.TrimSpace(c.Paths.FavoritesFile); c.Paths.FavoritesFile != "" {
		if strings.HasPrefix(c.Paths.FavoritesFile, "~") {
			if c.Paths.FavoritesFile, err = expandPath(c.Paths.FavoritesFile); err != nil {
				return fmt.Errorf("paths.favorites_file: %w", err)
			}
		}
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePodcastIndex() {
	if value, ok := os.LookupEnv("PODCASTINDEX_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.PodcastIndex.APIKey = value
	}
	if value, ok := os.LookupEnv("PODCASTINDEX_API_SECRET"); ok && strings.TrimSpace(value) != "" {
		c.PodcastIndex.APISecret = value
	}
	c.PodcastIndex.APIKey = strings.TrimSpace(c.PodcastIndex.APIKey)
	c.PodcastIndex.APISecret = strings.TrimSpace(c.PodcastIndex.APISecret)
	c.PodcastIndex.BaseURL = strings.TrimRight(strings.TrimSpace(c.PodcastIndex.BaseURL), "/")
	if c.PodcastIndex.BaseURL == "" {
		c.PodcastIndex.BaseURL = defaultBaseURL
	}
	c.PodcastIndex.UserAgent = strings.TrimSpace(c.PodcastIndex.UserAgent)
	if c.PodcastIndex.UserAgent == "" {
		c.PodcastIndex.UserAgent = defaultUserAgent
	}
	if c.PodcastIndex.TimeoutSeconds == 0 {
		c.PodcastIndex.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeRecent() {
	if c.Recent.MaxConcurrent == 0 {
		c.Recent.MaxConcurrent = defaultRecentMaxConcurrent
	}
	if c.Recent.ProgressThreshold == 0 {
		c.Recent.ProgressThreshold = defaultRecentProgressThreshold
	}
	if c.Recent.DefaultMax == 0 {
		c.Recent.DefaultMax = defaultRecentMax
	}
	if c.Recent.DefaultDays == 0 {
		c.Recent.DefaultDays = defaultRecentDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
