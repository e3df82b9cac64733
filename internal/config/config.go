package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Server    ServerConfig    `toml:"server"`
	Browser   BrowserConfig   `toml:"browser"`
	Expansion ExpansionConfig `toml:"expansion"`
	Watch     WatchConfig     `toml:"watch"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type BrowserConfig struct {
	// RemoteURL attaches to an already-running Chrome with
	// --remote-debugging-port instead of launching one.
	RemoteURL    string `toml:"remote_url"`
	Headless     bool   `toml:"headless"`
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
}

// ExpansionConfig bounds the waits around "see more" and comment-thread
// expansion. All waits are best-effort.
type ExpansionConfig struct {
	SeeMoreWaitMs  int `toml:"see_more_wait_ms"`
	ClickDelayMs   int `toml:"click_delay_ms"`
	CommentWaitMs  int `toml:"comment_wait_ms"`
	PollIntervalMs int `toml:"poll_interval_ms"`
	MaxRounds      int `toml:"max_rounds"`
}

// WatchConfig drives the optional scheduled scrape of a fixed URL.
type WatchConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Schedule string `toml:"schedule"`
	Timezone string `toml:"timezone"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr: "127.0.0.1:8473",
		},
		Browser: BrowserConfig{
			Headless:     false,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Expansion: ExpansionConfig{
			SeeMoreWaitMs:  1200,
			ClickDelayMs:   800,
			CommentWaitMs:  4000,
			PollIntervalMs: 50,
			MaxRounds:      8,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Schedule: "0 * * * *",
			Timezone: "Local",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "linkscrape"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the directory for the settings database
func DataDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "linkscrape"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
