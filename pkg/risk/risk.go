// Package risk converts a classified commit set plus optional CI data
// into a numeric score, a discrete level, and an ordered list of
// human-readable factors.
package risk

import (
	"fmt"
	"sort"
	"strings"

	"thoreinstein.com/relnote/pkg/classify"
	"thoreinstein.com/relnote/pkg/report"
)

// Risk levels.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
)

// Factor severities, roughly ordered by urgency. Zero-point factors
// carry context (info, warning, critical) without moving the score.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Scoring weights and thresholds.
const (
	breakingChangePoints = 2
	customerImpactPoints = 1
	customerImpactCap    = 3
	largeCommitPoints    = 1
	lowCoveragePoints    = 1
	coverageThreshold    = 80.0
	coverageDropWarning  = 5.0
	levelModerateFloor   = 3
	levelHighFloor       = 6
)

// Factor is one contribution to (or note about) the risk score.
type Factor struct {
	Reason   string `json:"reason"`
	Points   int    `json:"points"`
	Severity string `json:"severity"`
}

// Result is a complete risk assessment.
type Result struct {
	Score   int      `json:"score"`
	Level   string   `json:"level"`
	Factors []Factor `json:"factors"`
}

// LevelFor maps a score to a level.
func LevelFor(score int) string {
	switch {
	case score >= levelHighFloor:
		return LevelHigh
	case score >= levelModerateFloor:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Score assesses a release. Pure function: identical inputs yield an
// identical Result, factors in a fixed order. A nil ci means no QA
// data; that absence is noted as a zero-point factor and never
// penalized, so teams without CI wiring are not scored as risky for
// it.
func Score(commits []classify.Classified, ci *report.CIReport) Result {
	score := 0
	factors := []Factor{}

	breaking := 0
	for i := range commits {
		if commits[i].Breaking {
			breaking++
		}
	}
	if breaking > 0 {
		pts := breaking * breakingChangePoints
		score += pts
		factors = append(factors, Factor{
			Reason:   fmt.Sprintf("%d breaking change commit(s)", breaking),
			Points:   pts,
			Severity: SeverityHigh,
		})
	}

	impacting := 0
	featureSet := map[string]struct{}{}
	pathSet := map[string]struct{}{}
	for i := range commits {
		c := &commits[i]
		if c.ImpactCount() == 0 {
			continue
		}
		impacting++
		for _, f := range c.ImpactedFeatures {
			featureSet[f] = struct{}{}
		}
		for _, p := range c.HighRiskPaths {
			pathSet[p] = struct{}{}
		}
	}
	if impacting > 0 {
		pts := impacting * customerImpactPoints
		if pts > customerImpactCap {
			pts = customerImpactCap
		}
		score += pts
		factors = append(factors, Factor{
			Reason:   fmt.Sprintf("%d customer-impacting commit(s)", impacting),
			Points:   pts,
			Severity: SeverityMedium,
		})
		if len(featureSet) > 0 {
			factors = append(factors, Factor{
				Reason:   "Impacts features: " + strings.Join(sortedKeys(featureSet), ", "),
				Severity: SeverityInfo,
			})
		}
		if len(pathSet) > 0 {
			factors = append(factors, Factor{
				Reason:   "Changes in high-risk paths: " + strings.Join(sortedKeys(pathSet), ", "),
				Severity: SeverityInfo,
			})
		}
	}

	large := 0
	for i := range commits {
		if commits[i].Large {
			large++
		}
	}
	if large > 0 {
		pts := large * largeCommitPoints
		score += pts
		factors = append(factors, Factor{
			Reason:   fmt.Sprintf("%d large commit(s) (>%d lines)", large, classify.LargeCommitThreshold),
			Points:   pts,
			Severity: SeverityLow,
		})
	}

	migrationSet := map[string]struct{}{}
	for i := range commits {
		for _, m := range commits[i].MigrationPaths {
			migrationSet[m] = struct{}{}
		}
	}
	if len(migrationSet) > 0 {
		factors = append(factors, Factor{
			Reason:   "Schema migrations in window: " + strings.Join(sortedKeys(migrationSet), ", "),
			Severity: SeverityWarning,
		})
	}

	if ci == nil {
		factors = append(factors, Factor{
			Reason:   "No CI report available; QA signal missing",
			Severity: SeverityInfo,
		})
	} else {
		factors = appendCoverageFactors(factors, &score, ci)
		if ci.TestSummary != nil && ci.TestSummary.Failed > 0 {
			factors = append(factors, Factor{
				Reason:   fmt.Sprintf("%d test(s) failing", ci.TestSummary.Failed),
				Severity: SeverityCritical,
			})
		}
	}

	return Result{Score: score, Level: LevelFor(score), Factors: factors}
}

func appendCoverageFactors(factors []Factor, score *int, ci *report.CIReport) []Factor {
	if ci.Coverage == nil || ci.Coverage.LinePercent == nil {
		return factors
	}
	line := *ci.Coverage.LinePercent
	if line < coverageThreshold {
		*score += lowCoveragePoints
		factors = append(factors, Factor{
			Reason:   fmt.Sprintf("Test coverage below threshold (%.1f%% < %.0f%%)", line, coverageThreshold),
			Points:   lowCoveragePoints,
			Severity: SeverityMedium,
		})
	}
	if prev := ci.Coverage.Previous; prev != nil && prev.LinePercent != nil {
		drop := *prev.LinePercent - line
		if drop > coverageDropWarning {
			factors = append(factors, Factor{
				Reason:   fmt.Sprintf("Coverage dropped %.1f%% (%.1f%% to %.1f%%)", drop, *prev.LinePercent, line),
				Severity: SeverityWarning,
			})
		}
	}
	return factors
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
