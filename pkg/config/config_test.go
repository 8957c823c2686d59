package config

import (
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

func TestLoadDefaults(t *testing.T) {
	resetViper()
	t.Cleanup(resetViper)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Git.TimeoutSeconds != 30 {
		t.Errorf("Git.TimeoutSeconds = %d, want 30", cfg.Git.TimeoutSeconds)
	}
	if cfg.Git.MaxCommits != 200 {
		t.Errorf("Git.MaxCommits = %d, want 200", cfg.Git.MaxCommits)
	}
	if cfg.Reports.CIReportPath != "./ci_report.json" {
		t.Errorf("Reports.CIReportPath = %q, want ./ci_report.json", cfg.Reports.CIReportPath)
	}
	if cfg.Reports.WatchlistPath != "./customer_watchlist.json" {
		t.Errorf("Reports.WatchlistPath = %q, want ./customer_watchlist.json", cfg.Reports.WatchlistPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	resetViper()
	t.Cleanup(resetViper)

	viper.Set("git.timeout_seconds", 5)
	viper.Set("git.max_commits", 50)
	viper.Set("reports.watchlist_path", "/etc/relnote/watchlist.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Git.TimeoutSeconds != 5 {
		t.Errorf("Git.TimeoutSeconds = %d, want 5", cfg.Git.TimeoutSeconds)
	}
	if cfg.Git.MaxCommits != 50 {
		t.Errorf("Git.MaxCommits = %d, want 50", cfg.Git.MaxCommits)
	}
	if cfg.Reports.WatchlistPath != "/etc/relnote/watchlist.json" {
		t.Errorf("Reports.WatchlistPath = %q, want /etc/relnote/watchlist.json", cfg.Reports.WatchlistPath)
	}
}

func TestValidateRejectsNonPositive(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero timeout", Config{Git: GitConfig{TimeoutSeconds: 0, MaxCommits: 200}}},
		{"negative timeout", Config{Git: GitConfig{TimeoutSeconds: -1, MaxCommits: 200}}},
		{"zero max commits", Config{Git: GitConfig{TimeoutSeconds: 30, MaxCommits: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
