package summary

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders a summary for quick human review. The full JSON
// form remains the machine interface; this is a preview.
func Markdown(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Release Summary: %s to %s\n\n", s.Window.FromRef, s.Window.ToRef)

	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **Commits**: %d\n", s.Window.CommitCount)
	fmt.Fprintf(&b, "- **Authors**: %s\n", strings.Join(s.Window.Authors, ", "))
	fmt.Fprintf(&b, "- **Files Changed**: %d\n", s.Window.FilesChanged)
	fmt.Fprintf(&b, "- **Lines**: +%d -%d\n", s.Window.Insertions, s.Window.Deletions)
	if s.Window.FirstCommitDate != "" {
		fmt.Fprintf(&b, "- **Date Range**: %s to %s\n", s.Window.FirstCommitDate, s.Window.LastCommitDate)
	}
	if rel := s.Window.Release; rel != nil {
		fmt.Fprintf(&b, "- **Version**: %s to %s (%s)\n", rel.From, rel.To, rel.Bump)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Risk Assessment: %s\n", strings.ToUpper(s.Risk.Level))
	fmt.Fprintf(&b, "- **Score**: %d\n\n", s.Risk.Score)
	if len(s.Risk.Factors) > 0 {
		b.WriteString("**Factors:**\n")
		for _, f := range s.Risk.Factors {
			if f.Points > 0 {
				fmt.Fprintf(&b, "- %s (+%d points)\n", f.Reason, f.Points)
			} else {
				fmt.Fprintf(&b, "- %s\n", f.Reason)
			}
		}
		b.WriteString("\n")
	}
	if len(s.Recommendations) > 0 {
		b.WriteString("**Recommendations:**\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Changes by Category\n")
	writeBucket(&b, "Breaking", s.Categories.Breaking)
	writeBucket(&b, "Features", s.Categories.Features)
	writeBucket(&b, "Bugfixes", s.Categories.Bugfixes)
	writeBucket(&b, "Performance", s.Categories.Performance)
	writeBucket(&b, "Documentation", s.Categories.Documentation)
	writeBucket(&b, "Testing", s.Categories.Testing)
	writeBucket(&b, "Chores", s.Categories.Chores)
	writeBucket(&b, "Refactors", s.Categories.Refactors)
	writeBucket(&b, "Other", s.Categories.Other)

	if qa := s.QASnapshot; qa.Available {
		b.WriteString("## QA Snapshot\n")
		fmt.Fprintf(&b, "- **Build Status**: %s\n", qa.BuildStatus)
		if ts := qa.TestSummary; ts != nil {
			fmt.Fprintf(&b, "- **Tests**: %d/%d passed, %d failed\n", ts.Passed, ts.Total, ts.Failed)
		}
		if cov := qa.Coverage; cov != nil && cov.LinePercent != nil {
			if cov.BranchPercent != nil {
				fmt.Fprintf(&b, "- **Coverage**: %.1f%% line, %.1f%% branch\n", *cov.LinePercent, *cov.BranchPercent)
			} else {
				fmt.Fprintf(&b, "- **Coverage**: %.1f%% line\n", *cov.LinePercent)
			}
		}
		b.WriteString("\n")
	}

	if impacts := s.CustomerImpacts; impacts.Summary.TotalImpactedCommits > 0 {
		b.WriteString("## Customer Impacts\n")
		fmt.Fprintf(&b, "- **Impacted Commits**: %d\n", impacts.Summary.TotalImpactedCommits)
		fmt.Fprintf(&b, "- **Features Affected**: %d\n", impacts.Summary.FeaturesImpacted)
		if impacts.Summary.CustomersMentioned > 0 {
			fmt.Fprintf(&b, "- **Customers Mentioned**: %d\n", impacts.Summary.CustomersMentioned)
		}
		b.WriteString("\n")
		if len(impacts.ByFeature) > 0 {
			b.WriteString("**By Feature:**\n")
			for _, feature := range sortedMapKeys(impacts.ByFeature) {
				fmt.Fprintf(&b, "- %s: %d commit(s)\n", feature, len(impacts.ByFeature[feature]))
			}
			b.WriteString("\n")
		}
	}

	for _, note := range s.Notes {
		fmt.Fprintf(&b, "> %s\n", note)
	}
	if len(s.Notes) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "*Generated at %s*\n", s.GeneratedAt)
	return b.String()
}

// writeBucket prints a category heading plus its first few commits.
func writeBucket(b *strings.Builder, title string, refs []CommitRef) {
	if len(refs) == 0 {
		return
	}
	const show = 5
	fmt.Fprintf(b, "### %s (%d)\n", title, len(refs))
	for i, ref := range refs {
		if i == show {
			fmt.Fprintf(b, "- ... and %d more\n", len(refs)-show)
			break
		}
		fmt.Fprintf(b, "- %s (%s)\n", ref.Subject, shortSHA(ref.SHA))
	}
	b.WriteString("\n")
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func sortedMapKeys(m map[string][]ImpactRef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
