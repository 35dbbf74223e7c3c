package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Missing API credentials are
// not an error here; see RequireAPICredentials.
func (c *Config) Validate() error {
	if err := c.validatePodcastIndex(); err != nil {
		return err
	}
	if err := c.validateRecent(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePodcastIndex() error {
	parsed, err := url.Parse(c.PodcastIndex.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("podcastindex.base_url %q must be an absolute URL", c.PodcastIndex.BaseURL)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("podcastindex.base_url %q must use http or https", c.PodcastIndex.BaseURL)
	}
	if c.PodcastIndex.TimeoutSeconds <= 0 {
		return errors.New("podcastindex.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRecent() error {
	if err := ensurePositiveMap(map[string]int{
		"recent.max_concurrent":     c.Recent.MaxConcurrent,
		"recent.progress_threshold": c.Recent.ProgressThreshold,
		"recent.default_max":        c.Recent.DefaultMax,
		"recent.default_days":       c.Recent.DefaultDays,
	}); err != nil {
		return err
	}
	if c.Recent.BatchDelayMS < 0 {
		return errors.New("recent.batch_delay_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.MinFreeMiB < 0 {
		return errors.New("download.min_free_mib must be >= 0")
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
