package report

import (
	"encoding/json"
	"log/slog"
	"os"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// readJSONFile reads path and returns its bytes. A missing file
// returns (nil, nil); any other read failure is an InvalidJSONFile
// error since the caller asked for this specific file.
func readJSONFile(path string, logger *slog.Logger) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("json file not found, using defaults", "path", path)
			return nil, nil
		}
		return nil, relerrors.NewInvalidJSONFile(path, err.Error()).WithCause(err)
	}
	logger.Info("loaded json file", "path", path)
	return data, nil
}

// LoadCIReport reads and parses a CI report. A missing file returns
// (nil, nil): absence of QA data is a valid state, not an error. A
// present file that is not valid JSON, or whose fields have the wrong
// types, fails with InvalidJSONFile rather than passing corrupt data
// downstream.
func LoadCIReport(path string, logger *slog.Logger) (*CIReport, error) {
	data, err := readJSONFile(path, logger)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rep CIReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, relerrors.NewInvalidJSONFile(path, err.Error()).WithCause(err)
	}

	if rep.BuildStatus == "" {
		logger.Warn("ci report missing build_status", "path", path)
	}
	if rep.TestSummary == nil {
		logger.Warn("ci report missing test_summary", "path", path)
	}
	if rep.Coverage == nil {
		logger.Warn("ci report missing coverage", "path", path)
	} else if rep.Coverage.LinePercent == nil {
		logger.Warn("ci report coverage missing line_percent", "path", path)
	}

	rep.BuildStatus = NormalizeBuildStatus(rep.BuildStatus)
	return &rep, nil
}

// watchlistFile mirrors Watchlist with pointer fields so a merge can
// tell "field absent from file" apart from "field present but empty".
type watchlistFile struct {
	CriticalCustomers      *[]string `json:"critical_customers"`
	WatchedFeatures        *[]string `json:"watched_features"`
	BreakingChangeKeywords *[]string `json:"breaking_change_keywords"`
	HighRiskPaths          *[]string `json:"high_risk_paths"`
	MigrationPatterns      *[]string `json:"migration_patterns"`
}

// LoadWatchlist reads and parses a customer watchlist, merging file
// values over the built-in defaults. A missing file returns the
// default watchlist and is never an error; the result is never nil
// when err is nil.
func LoadWatchlist(path string, logger *slog.Logger) (*Watchlist, error) {
	wl := DefaultWatchlist()

	data, err := readJSONFile(path, logger)
	if err != nil {
		return nil, err
	}
	if data == nil {
		logger.Info("using default customer watchlist")
		return wl, nil
	}

	var file watchlistFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, relerrors.NewInvalidJSONFile(path, err.Error()).WithCause(err)
	}

	if file.CriticalCustomers != nil {
		wl.CriticalCustomers = *file.CriticalCustomers
	}
	if file.WatchedFeatures != nil {
		wl.WatchedFeatures = *file.WatchedFeatures
	}
	if file.BreakingChangeKeywords != nil {
		wl.BreakingChangeKeywords = *file.BreakingChangeKeywords
	}
	if file.HighRiskPaths != nil {
		wl.HighRiskPaths = *file.HighRiskPaths
	}
	if file.MigrationPatterns != nil {
		wl.MigrationPatterns = *file.MigrationPatterns
	}
	wl.FromDefaults = false
	return wl, nil
}
