// Package summary merges git history, classification, risk assessment
// and QA data into one immutable release summary.
package summary

import (
	"thoreinstein.com/relnote/pkg/report"
	"thoreinstein.com/relnote/pkg/risk"
)

// CommitRef is the trimmed view of a commit carried inside a category
// bucket.
type CommitRef struct {
	SHA            string `json:"sha"`
	Author         string `json:"author"`
	Date           string `json:"date"`
	Subject        string `json:"subject"`
	Body           string `json:"body,omitempty"`
	Category       string `json:"category"`
	FilesChanged   int    `json:"files_changed_count"`
	LinesChanged   int    `json:"lines_changed"`
	Large          bool   `json:"is_large"`
	Breaking       bool   `json:"is_breaking"`
	CustomerImpact bool   `json:"customer_impact"`
}

// Categories holds the fixed set of buckets a release partitions into.
// Every commit lands in exactly one category bucket; breaking-flagged
// commits are additionally listed in Breaking, since the breaking flag
// is orthogonal to category.
type Categories struct {
	Breaking      []CommitRef `json:"breaking"`
	Features      []CommitRef `json:"features"`
	Bugfixes      []CommitRef `json:"bugfixes"`
	Performance   []CommitRef `json:"performance"`
	Documentation []CommitRef `json:"documentation"`
	Testing       []CommitRef `json:"testing"`
	Chores        []CommitRef `json:"chores"`
	Refactors     []CommitRef `json:"refactors"`
	Other         []CommitRef `json:"other"`
}

// ReleaseInfo describes the version step between two refs when both
// parse as semantic versions.
type ReleaseInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
	Bump string `json:"bump"`
}

// WindowMeta is the release window header.
type WindowMeta struct {
	FromRef         string       `json:"from_ref"`
	ToRef           string       `json:"to_ref"`
	FromSHA         string       `json:"from_sha"`
	ToSHA           string       `json:"to_sha"`
	CommitCount     int          `json:"commit_count"`
	FirstCommitDate string       `json:"first_commit_date,omitempty"`
	LastCommitDate  string       `json:"last_commit_date,omitempty"`
	Authors         []string     `json:"authors"`
	FilesChanged    int          `json:"files_changed"`
	Insertions      int          `json:"insertions"`
	Deletions       int          `json:"deletions"`
	Release         *ReleaseInfo `json:"release,omitempty"`
}

// QASnapshot carries CI data through the summary. Available=false
// means no report existed; the remaining fields are then zero-valued
// rather than fabricated.
type QASnapshot struct {
	Available       bool                `json:"available"`
	BuildStatus     string              `json:"build_status"`
	TestSummary     *report.TestSummary `json:"test_summary"`
	Coverage        *report.Coverage    `json:"coverage"`
	FailedTests     []report.FailedTest `json:"failed_tests"`
	DurationSeconds *float64            `json:"duration_seconds,omitempty"`
}

// ImpactRef points a watchlist match back at a commit.
type ImpactRef struct {
	SHA      string `json:"sha"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
}

// ImpactTotals summarizes the customer-impact analysis.
type ImpactTotals struct {
	TotalImpactedCommits int `json:"total_impacted_commits"`
	FeaturesImpacted     int `json:"features_impacted"`
	CustomersMentioned   int `json:"customers_mentioned"`
	HighRiskPathsChanged int `json:"high_risk_paths_changed"`
}

// CustomerImpacts groups impacted commits per feature, customer and
// high-risk path, and echoes the watchlist that drove the analysis.
type CustomerImpacts struct {
	UsingDefaults     bool                   `json:"using_default_watchlist"`
	Summary           ImpactTotals           `json:"summary"`
	ByFeature         map[string][]ImpactRef `json:"by_feature"`
	ByCustomer        map[string][]ImpactRef `json:"by_customer"`
	ByPath            map[string][]ImpactRef `json:"by_path"`
	WatchedFeatures   []string               `json:"watched_features"`
	CriticalCustomers []string               `json:"critical_customers"`
	HighRiskPaths     []string               `json:"high_risk_paths"`
}

// Summary is the complete release summary. Built once, never mutated.
type Summary struct {
	ID              string          `json:"id"`
	Window          WindowMeta      `json:"window"`
	Risk            risk.Result     `json:"risk"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Categories      Categories      `json:"categories"`
	QASnapshot      QASnapshot      `json:"qaSnapshot"`
	CustomerImpacts CustomerImpacts `json:"customerImpacts"`
	Notes           []string        `json:"notes,omitempty"`
	GeneratedAt     string          `json:"generatedAt"`
}
