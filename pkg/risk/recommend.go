package risk

import (
	"fmt"

	"thoreinstein.com/relnote/pkg/classify"
	"thoreinstein.com/relnote/pkg/report"
)

// Recommendations derives an ordered list of actionable follow-ups
// from an assessment. Deterministic for identical inputs.
func Recommendations(res Result, commits []classify.Classified, ci *report.CIReport) []string {
	var recs []string

	breaking, impacting, risky, large := 0, 0, 0, 0
	for i := range commits {
		c := &commits[i]
		if c.Breaking {
			breaking++
		}
		if c.ImpactCount() > 0 {
			impacting++
		}
		if len(c.HighRiskPaths) > 0 {
			risky++
		}
		if c.Large {
			large++
		}
	}

	if breaking > 0 {
		recs = append(recs,
			fmt.Sprintf("Review %d breaking change(s) with stakeholders", breaking),
			"Update migration guide and changelog with breaking changes")
	}
	if impacting > 0 {
		recs = append(recs,
			fmt.Sprintf("Notify customer success about %d impactful change(s)", impacting))
	}
	if risky > 0 {
		recs = append(recs,
			"Extra QA attention on changes under high-risk paths")
	}
	if large > 0 {
		recs = append(recs,
			fmt.Sprintf("Manual review of %d large commit(s) for hidden issues", large))
	}

	if ci != nil {
		if ci.TestSummary != nil && ci.TestSummary.Failed > 0 {
			recs = append(recs,
				fmt.Sprintf("Fix %d failing test(s) before release", ci.TestSummary.Failed))
		}
		if ci.Coverage != nil && ci.Coverage.LinePercent != nil && *ci.Coverage.LinePercent < coverageThreshold {
			recs = append(recs,
				fmt.Sprintf("Improve test coverage (currently %.1f%%, target %.0f%%)",
					*ci.Coverage.LinePercent, coverageThreshold))
		}
	}

	switch res.Level {
	case LevelHigh:
		recs = append(recs,
			"Consider splitting this release into smaller, lower-risk releases",
			"Use feature flags for gradual rollout of high-risk changes")
	case LevelModerate:
		recs = append(recs,
			"Standard QA process with extra attention to flagged areas")
	}

	return recs
}
