package config

const (
	defaultBaseURL                 = "https://api.podcastindex.org/api/1.0"
	defaultUserAgent               = "pullapod/1.0"
	defaultTimeoutSeconds          = 30
	defaultDownloadDir             = "."
	defaultMinFreeMiB              = 100
	defaultRecentMaxConcurrent     = 5
	defaultRecentBatchDelayMS      = 100
	defaultRecentProgressThreshold = 10
	defaultRecentMax               = 5
	defaultRecentDays              = 7
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		PodcastIndex: PodcastIndex{
			BaseURL:        defaultBaseURL,
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			DataDir:     defaultDataDir(),
		},
		Download: Download{
			TagAudio:   true,
			MinFreeMiB: defaultMinFreeMiB,
		},
		Recent: Recent{
			MaxConcurrent:     defaultRecentMaxConcurrent,
			BatchDelayMS:      defaultRecentBatchDelayMS,
			ProgressThreshold: defaultRecentProgressThreshold,
			DefaultMax:        defaultRecentMax,
			DefaultDays:       defaultRecentDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
