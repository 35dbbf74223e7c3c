package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pullapod/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.PodcastIndex.APIKey = "test-key"
	cfgVal.PodcastIndex.APISecret = "test-secret"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Paths.FavoritesFile = filepath.Join(base, "config", "pullapod", "favorites.json")
	cfgVal.Download.MinFreeMiB = 0
	cfgVal.Recent.BatchDelayMS = 0
	cfgVal.Env = config.Environment{
		XDGConfigHome: filepath.Join(base, "config"),
		HomeDir:       filepath.Join(base, "home"),
	}

	if err := os.MkdirAll(cfgVal.Paths.DownloadDir, 0o755); err != nil {
		t.Fatalf("mkdir download dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIBaseURL points the Podcast Index client at a test server.
func WithAPIBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PodcastIndex.BaseURL = url
	}
}

// WithoutCredentials clears the Podcast Index key and secret.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PodcastIndex.APIKey = ""
		b.cfg.PodcastIndex.APISecret = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
