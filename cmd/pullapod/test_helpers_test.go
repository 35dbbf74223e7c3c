package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pullapod/internal/config"
	"pullapod/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	api        *testsupport.APIServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	api := testsupport.NewAPIServer(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithAPIBaseURL(api.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)

	t.Setenv("XDG_CONFIG_HOME", cfg.Env.XDGConfigHome)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", cfg.Env.HomeDir)
	t.Setenv("PODCASTINDEX_API_KEY", "")
	t.Setenv("PODCASTINDEX_API_SECRET", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, api: api, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *cliTestEnv) runWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func podcastPayload(id int64, title, url string) map[string]any {
	return map[string]any{
		"status": "true",
		"feed": map[string]any{
			"id":           id,
			"title":        title,
			"url":          url,
			"author":       title + " Author",
			"episodeCount": 12,
		},
	}
}
