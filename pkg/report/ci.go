// Package report loads the optional JSON inputs that supplement git
// history: a CI/test report and a customer watchlist. Both loaders
// degrade gracefully when the file is absent, so an analysis can run
// against a repository with no QA wiring at all.
package report

import "strings"

// Build status values after normalization. CI systems disagree on
// terminology ("success", "SUCCESS", "failed", "FAILURE"), so raw
// statuses are folded into this fixed set on load.
const (
	BuildPassing  = "passing"
	BuildUnstable = "unstable"
	BuildFailing  = "failing"
	BuildUnknown  = "unknown"
)

// TestSummary holds aggregate test counts from a CI run.
type TestSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky"`
}

// CoveragePoint is a single coverage measurement. Pointer fields
// distinguish "not reported" from a genuine 0%.
type CoveragePoint struct {
	LinePercent   *float64 `json:"line_percent,omitempty"`
	BranchPercent *float64 `json:"branch_percent,omitempty"`
}

// Coverage holds the current coverage measurement plus an optional
// prior measurement for trend computation.
type Coverage struct {
	LinePercent   *float64       `json:"line_percent,omitempty"`
	BranchPercent *float64       `json:"branch_percent,omitempty"`
	Previous      *CoveragePoint `json:"previous,omitempty"`
}

// FailedTest describes one failing test from the CI run.
type FailedTest struct {
	Name  string `json:"name"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`
}

// CIReport is the parsed contents of a CI report file. A nil *CIReport
// means "no QA data", which downstream consumers treat differently
// from a present-but-empty report.
type CIReport struct {
	BuildStatus     string       `json:"build_status"`
	TestSummary     *TestSummary `json:"test_summary,omitempty"`
	Coverage        *Coverage    `json:"coverage,omitempty"`
	FailedTests     []FailedTest `json:"failed_tests,omitempty"`
	DurationSeconds *float64     `json:"duration_seconds,omitempty"`
}

// NormalizeBuildStatus folds a raw CI status string into one of the
// four canonical values. Unrecognized or empty input maps to
// BuildUnknown.
func NormalizeBuildStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passing", "success", "succeeded", "passed", "ok", "green":
		return BuildPassing
	case "unstable", "flaky", "yellow":
		return BuildUnstable
	case "failing", "failed", "failure", "error", "red":
		return BuildFailing
	default:
		return BuildUnknown
	}
}
