package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hochfrequenz/changetrack/internal/classify"
)

// Config holds all application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	GitHub  GitHubConfig  `toml:"github"`
	Scope   ScopeConfig   `toml:"scope"`
	Notify  NotifyConfig  `toml:"notify"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	RepoPath          string `toml:"repo_path"`
	AnalysesDir       string `toml:"analyses_dir"`
	CachePath         string `toml:"cache_path"`
	GitTimeoutSeconds int    `toml:"git_timeout_seconds"`
}

// GitHubConfig holds hosting API settings
type GitHubConfig struct {
	Repo             string `toml:"repo"` // "owner/repo"
	FetchLimit       int    `toml:"fetch_limit"`
	FetchConcurrency int    `toml:"fetch_concurrency"`
}

// ScopeConfig holds the default compiler-related path prefixes
type ScopeConfig struct {
	Prefixes []string `toml:"prefixes"`
}

// NotifyConfig holds notification settings
type NotifyConfig struct {
	SlackWebhook string `toml:"slack_webhook"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			RepoPath:          "",
			AnalysesDir:       "analyses",
			CachePath:         filepath.Join(home, ".cache", "changetrack", "prcache.db"),
			GitTimeoutSeconds: 60,
		},
		GitHub: GitHubConfig{
			Repo:             "JuliaLang/julia",
			FetchLimit:       1000,
			FetchConcurrency: 4,
		},
		Scope: ScopeConfig{
			Prefixes: classify.DefaultPrefixes(),
		},
	}
}

// GitTimeout returns the configured git subprocess timeout
func (c *Config) GitTimeout() time.Duration {
	if c.General.GitTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.General.GitTimeoutSeconds) * time.Second
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.General.RepoPath = ExpandPath(cfg.General.RepoPath)
	cfg.General.AnalysesDir = ExpandPath(cfg.General.AnalysesDir)
	cfg.General.CachePath = ExpandPath(cfg.General.CachePath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "changetrack", "config.toml")
}
