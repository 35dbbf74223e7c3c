package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pullapod/internal/config"
	"pullapod/internal/favorites"
	"pullapod/internal/history"
	"pullapod/internal/logging"
	"pullapod/internal/podcastindex"
	"pullapod/internal/services"
)

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	sessionID  string
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags, sessionID: uuid.NewString()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.flags.config)
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the invocation logger, writing to the command's stderr.
func (c *commandContext) loggerFor(cmd *cobra.Command) *slog.Logger {
	c.loggerOnce.Do(func() {
		level := ""
		if c.flags.verbose {
			level = "debug"
		}
		logger, err := logging.NewFromConfig(c.config, cmd.ErrOrStderr(), level, c.sessionID)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// commandScope tags ctx with the command path and a request id for log
// correlation.
func (c *commandContext) commandScope(ctx context.Context, cmd *cobra.Command) context.Context {
	ctx = services.WithCommand(ctx, cmd.CommandPath())
	return services.WithRequestID(ctx, c.sessionID)
}

func (c *commandContext) favoritesService(cmd *cobra.Command) (*favorites.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(c.flags.favorites)
	if path == "" {
		path = cfg.Paths.FavoritesFile
	}
	store, err := favorites.NewStore(favorites.Options{
		Path:          path,
		XDGConfigHome: cfg.Env.XDGConfigHome,
		HomeDir:       cfg.Env.HomeDir,
		Logger:        c.loggerFor(cmd),
	})
	if err != nil {
		return nil, err
	}
	return favorites.NewService(store), nil
}

func (c *commandContext) apiClient() (*podcastindex.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPICredentials(); err != nil {
		return nil, err
	}
	return podcastindex.New(podcastindex.Config{
		APIKey:    cfg.PodcastIndex.APIKey,
		APISecret: cfg.PodcastIndex.APISecret,
		BaseURL:   cfg.PodcastIndex.BaseURL,
		UserAgent: cfg.PodcastIndex.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
