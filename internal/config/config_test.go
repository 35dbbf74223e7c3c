package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pullapod/internal/config"
	"pullapod/internal/services"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("PODCASTINDEX_API_KEY", "")
	t.Setenv("PODCASTINDEX_API_SECRET", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantPath := filepath.Join(home, ".config", "pullapod", "config.toml")
	if resolved != wantPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, wantPath)
	}
	wantData := filepath.Join(home, ".local", "share", "pullapod")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if !filepath.IsAbs(cfg.Paths.DownloadDir) {
		t.Fatalf("expected absolute download dir, got %q", cfg.Paths.DownloadDir)
	}
	if cfg.PodcastIndex.BaseURL != config.Default().PodcastIndex.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.PodcastIndex.BaseURL)
	}
	if cfg.Recent.MaxConcurrent != 5 {
		t.Fatalf("expected max concurrent 5, got %d", cfg.Recent.MaxConcurrent)
	}
	if cfg.BatchDelay().Milliseconds() != 100 {
		t.Fatalf("expected 100ms batch delay, got %s", cfg.BatchDelay())
	}
	if cfg.Env.HomeDir != home {
		t.Fatalf("expected captured home %q, got %q", home, cfg.Env.HomeDir)
	}
	if cfg.HistoryPath() != filepath.Join(wantData, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
}

func TestLoadHonoursXDGConfigHome(t *testing.T) {
	isolateEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg, resolved, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(xdg, "pullapod", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Env.XDGConfigHome != xdg {
		t.Fatalf("expected captured XDG_CONFIG_HOME %q, got %q", xdg, cfg.Env.XDGConfigHome)
	}
}

func TestLoadCustomPath(t *testing.T) {
	home := isolateEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[podcastindex]
api_key = "file-key"
api_secret = "file-secret"
base_url = "https://example.test/api/1.0/"

[paths]
download_dir = "~/Podcasts"
favorites_file = "~/.config/pullapod/custom.json"

[recent]
max_concurrent = 3
batch_delay_ms = 0

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.PodcastIndex.APIKey != "file-key" || cfg.PodcastIndex.APISecret != "file-secret" {
		t.Fatalf("unexpected credentials: %+v", cfg.PodcastIndex)
	}
	if cfg.PodcastIndex.BaseURL != "https://example.test/api/1.0" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PodcastIndex.BaseURL)
	}
	if cfg.Paths.DownloadDir != filepath.Join(home, "Podcasts") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Paths.FavoritesFile != filepath.Join(home, ".config", "pullapod", "custom.json") {
		t.Fatalf("unexpected favorites file: %q", cfg.Paths.FavoritesFile)
	}
	if cfg.Recent.MaxConcurrent != 3 {
		t.Fatalf("expected max concurrent 3, got %d", cfg.Recent.MaxConcurrent)
	}
	if cfg.Recent.BatchDelayMS != 0 {
		t.Fatalf("expected zero batch delay to survive, got %d", cfg.Recent.BatchDelayMS)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging settings, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[podcastindex\napi_key = 1"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[recent]\nmax_concurent = 3\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "max_concurent") {
		t.Fatalf("expected unknown key in error, got %v", err)
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != configPath {
		t.Fatalf("expected missing file at %s, got exists=%v resolved=%s", configPath, exists, resolved)
	}
	if cfg.Recent.DefaultMax != config.Default().Recent.DefaultMax {
		t.Fatalf("expected default recent settings, got %+v", cfg.Recent)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PODCASTINDEX_API_KEY", "env-key")
	t.Setenv("PODCASTINDEX_API_SECRET", "env-secret")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[podcastindex]\napi_key = \"file-key\"\napi_secret = \"file-secret\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PodcastIndex.APIKey != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.PodcastIndex.APIKey)
	}
	if cfg.PodcastIndex.APISecret != "env-secret" {
		t.Fatalf("expected env secret, got %q", cfg.PodcastIndex.APISecret)
	}
	if err := cfg.RequireAPICredentials(); err != nil {
		t.Fatalf("expected credentials to be present, got %v", err)
	}
}

func TestRequireAPICredentialsNamesEnvVars(t *testing.T) {
	isolateEnv(t)
	cfg := config.Default()
	cfg.PodcastIndex.APIKey = "key-only"

	err := cfg.RequireAPICredentials()
	if err == nil {
		t.Fatal("expected missing secret error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"api_secret", "PODCASTINDEX_API_KEY", "PODCASTINDEX_API_SECRET"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in error %q", want, msg)
		}
	}
	if strings.Contains(msg, "podcastindex.api_key ") {
		t.Fatalf("did not expect api_key to be reported missing: %q", msg)
	}
}

func TestCreateSample(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat sample: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 sample, got %v", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Recent.MaxConcurrent != 5 {
		t.Fatalf("expected sample max_concurrent 5, got %d", decoded.Recent.MaxConcurrent)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "relative base url",
			mutate: func(c *config.Config) { c.PodcastIndex.BaseURL = "api/1.0" },
			want:   "podcastindex.base_url",
		},
		{
			name:   "ftp base url",
			mutate: func(c *config.Config) { c.PodcastIndex.BaseURL = "ftp://example.test" },
			want:   "http or https",
		},
		{
			name:   "negative timeout",
			mutate: func(c *config.Config) { c.PodcastIndex.TimeoutSeconds = -1 },
			want:   "timeout_seconds",
		},
		{
			name:   "zero concurrency",
			mutate: func(c *config.Config) { c.Recent.MaxConcurrent = 0 },
			want:   "recent.max_concurrent",
		},
		{
			name:   "negative batch delay",
			mutate: func(c *config.Config) { c.Recent.BatchDelayMS = -5 },
			want:   "recent.batch_delay_ms",
		},
		{
			name:   "negative free space",
			mutate: func(c *config.Config) { c.Download.MinFreeMiB = -1 },
			want:   "download.min_free_mib",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestEnsureDirectoriesCreatesDataDir(t *testing.T) {
	isolateEnv(t)
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data", "pullapod")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	info, err := os.Stat(cfg.Paths.DataDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected data dir to exist: %v", err)
	}
}
