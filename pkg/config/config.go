// Package config loads relnote configuration from file and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Default values, shared with the tool schemas so listed defaults and
// applied defaults cannot drift apart.
const (
	DefaultGitTimeoutSeconds = 30
	DefaultMaxCommits        = 200
	DefaultCIReportPath      = "./ci_report.json"
	DefaultWatchlistPath     = "./customer_watchlist.json"
)

// Config represents the application configuration. Everything has a
// working default; the config file is optional.
type Config struct {
	Git     GitConfig     `mapstructure:"git"`
	Reports ReportsConfig `mapstructure:"reports"`
}

// GitConfig holds git subprocess configuration.
type GitConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"` // Deadline for each git invocation
	MaxCommits     int `mapstructure:"max_commits"`     // Default commit limit per history query
}

// ReportsConfig holds default paths for the optional JSON inputs.
type ReportsConfig struct {
	CIReportPath  string `mapstructure:"ci_report_path"`
	WatchlistPath string `mapstructure:"watchlist_path"`
}

// Init wires viper to the given config file (or the default location)
// and environment variables. Call once at startup before Load.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "relnote"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("RELNOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load loads the configuration from file and environment variables.
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	if c.Git.TimeoutSeconds <= 0 {
		return errors.Newf("git.timeout_seconds must be positive, got %d", c.Git.TimeoutSeconds)
	}
	if c.Git.MaxCommits <= 0 {
		return errors.Newf("git.max_commits must be positive, got %d", c.Git.MaxCommits)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("git.timeout_seconds", DefaultGitTimeoutSeconds)
	viper.SetDefault("git.max_commits", DefaultMaxCommits)
	viper.SetDefault("reports.ci_report_path", DefaultCIReportPath)
	viper.SetDefault("reports.watchlist_path", DefaultWatchlistPath)
}
