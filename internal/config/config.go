// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a string ("10s", "500ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Base           string   `toml:"base"`
	Timeout        Duration `toml:"timeout"`
	UserAgent      string   `toml:"user_agent"`
	Blocklist      []string `toml:"blocklist"`
	Resolve        string   `toml:"resolve"`
	MaxConcurrency int      `toml:"max_concurrency"`
	Pagination     string   `toml:"pagination"`
	BatchSize      int      `toml:"batch_size"`
	BatchDelay     Duration `toml:"batch_delay"`
	EmbedFallback  bool     `toml:"embed_fallback"`
	Player         string   `toml:"player"`
	DownloadDir    string   `toml:"download_dir"`
	Debug          bool     `toml:"debug"`
	LogFile        string   `toml:"log_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:           "https://ww.anime4up.rest",
		Timeout:        Duration{10 * time.Second},
		UserAgent:      "Mozilla/5.0",
		Blocklist:      []string{"mega", "megamax", "dailymotion"},
		Resolve:        "parallel",
		MaxConcurrency: 6,
		Pagination:     "batched",
		BatchSize:      5,
		BatchDelay:     Duration{500 * time.Millisecond},
		EmbedFallback:  true,
		Player:         "mpv",
		DownloadDir:    "~/Videos/anime4up",
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "anime4up"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "anime4up"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at the default path and merges it with the
// defaults. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path and merges it with the defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Base == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.Base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base must be an http(s) URL, got %q", c.Base)
	}

	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	switch strings.ToLower(c.Resolve) {
	case "parallel", "sequential":
	default:
		return fmt.Errorf("unsupported resolve policy %q (valid: parallel, sequential)", c.Resolve)
	}

	switch strings.ToLower(c.Pagination) {
	case "parallel", "batched":
	default:
		return fmt.Errorf("unsupported pagination policy %q (valid: parallel, batched)", c.Pagination)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.BatchDelay.Duration < 0 {
		return fmt.Errorf("batch_delay cannot be negative, got %s", c.BatchDelay)
	}

	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	return nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
