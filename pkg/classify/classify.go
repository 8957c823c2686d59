// Package classify assigns each commit a category, a breaking-change
// flag, and a set of watchlist-driven impact matches. Category and the
// breaking flag are independent dimensions: "feat!: drop v1 auth" is a
// feature that happens to break, not a ninth category swallowing the
// other eight.
package classify

import (
	"log/slog"
	"regexp"
	"strings"

	"thoreinstein.com/relnote/pkg/gitlog"
	"thoreinstein.com/relnote/pkg/report"
)

// Category values assigned to commits.
const (
	CategoryFeature       = "feature"
	CategoryBugfix        = "bugfix"
	CategoryPerformance   = "performance"
	CategoryDocumentation = "documentation"
	CategoryTesting       = "testing"
	CategoryChore         = "chore"
	CategoryRefactor      = "refactor"
	CategoryOther         = "other"
)

// Confidence values describing how the category was determined.
const (
	ConfidenceHigh   = "high"   // structured subject prefix
	ConfidenceMedium = "medium" // keyword heuristic matched
	ConfidenceLow    = "low"    // nothing matched, fell through to other
)

// LargeCommitThreshold is the changed-line count above which a commit
// is flagged as large.
const LargeCommitThreshold = 500

// conventionalRe matches "type(scope)!: description" subjects, with
// scope and the breaking marker optional.
var conventionalRe = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!)?\s*:\s*(.+)$`)

// conventionalTypes maps structured prefix types to categories.
// Unlisted types classify as other.
var conventionalTypes = map[string]string{
	"feat":        CategoryFeature,
	"feature":     CategoryFeature,
	"fix":         CategoryBugfix,
	"bug":         CategoryBugfix,
	"chore":       CategoryChore,
	"refactor":    CategoryRefactor,
	"perf":        CategoryPerformance,
	"performance": CategoryPerformance,
	"docs":        CategoryDocumentation,
	"doc":         CategoryDocumentation,
	"test":        CategoryTesting,
	"tests":       CategoryTesting,
	"style":       CategoryChore,
	"build":       CategoryChore,
	"ci":          CategoryChore,
}

// keywordRules is the fallback heuristic for unstructured subjects,
// evaluated in order against the lowercased subject+body. A slice, not
// a map: evaluation order is part of the contract and map iteration
// would make classification nondeterministic.
var keywordRules = []struct {
	category string
	keywords []string
}{
	{CategoryBugfix, []string{"fix", "bug", "patch", "issue", "resolve", "correct"}},
	{CategoryFeature, []string{"add", "new", "feature", "implement", "support"}},
	{CategoryPerformance, []string{"optimize", "performance", "faster", "speed", "improve"}},
	{CategoryDocumentation, []string{"doc", "docs", "readme", "comment", "documentation"}},
	{CategoryTesting, []string{"test", "tests", "testing", "spec", "coverage"}},
	{CategoryRefactor, []string{"refactor", "restructure", "reorganize", "clean"}},
}

// breakingBodyMarkers are literal markers that flag a breaking change
// when present in the lowercased commit body.
var breakingBodyMarkers = []string{
	"breaking change:",
	"breaking:",
	"breaking-change:",
}

// Classified is a commit plus its derived classification fields.
type Classified struct {
	gitlog.Commit

	Category     string `json:"category"`
	Confidence   string `json:"confidence"`
	Conventional bool   `json:"is_conventional"`
	Scope        string `json:"scope,omitempty"`
	Breaking     bool   `json:"is_breaking"`
	Large        bool   `json:"is_large"`
	LinesChanged int    `json:"total_lines_changed"`

	// Watchlist matches. Slices preserve watchlist order so output
	// is stable across runs.
	ImpactedFeatures   []string `json:"matched_features"`
	MentionedCustomers []string `json:"matched_customers"`
	HighRiskPaths      []string `json:"matched_paths"`
	MigrationPaths     []string `json:"migration_paths,omitempty"`
}

// ImpactCount returns the total number of watchlist matches for this
// commit. A commit with a nonzero count is customer-impacting.
func (c *Classified) ImpactCount() int {
	return len(c.ImpactedFeatures) + len(c.MentionedCustomers) + len(c.HighRiskPaths)
}

// Commits classifies every commit in order. Pure with respect to its
// inputs: the same commits and watchlist always produce the same
// result, and neither input is mutated.
func Commits(commits []gitlog.Commit, wl *report.Watchlist, logger *slog.Logger) []Classified {
	out := make([]Classified, 0, len(commits))
	for _, c := range commits {
		out = append(out, one(c, wl))
	}
	logger.Info("classified commits", "count", len(out))
	logger.Debug("category distribution", "counts", CategoryCounts(out))
	return out
}

// CategoryCounts tallies commits per category.
func CategoryCounts(commits []Classified) map[string]int {
	counts := map[string]int{}
	for i := range commits {
		counts[commits[i].Category]++
	}
	return counts
}

func one(c gitlog.Commit, wl *report.Watchlist) Classified {
	ins, del := c.LinesChanged()
	cl := Classified{
		Commit:       c,
		LinesChanged: ins + del,
		Large:        ins+del > LargeCommitThreshold,
	}

	ctype, scope, marker, ok := parseConventional(c.Subject)
	if ok {
		cl.Conventional = true
		cl.Scope = scope
		if cat, known := conventionalTypes[ctype]; known {
			cl.Category = cat
		} else {
			cl.Category = CategoryOther
		}
		cl.Confidence = ConfidenceHigh
	} else {
		cl.Category = byKeywords(c.Subject, c.Body)
		if cl.Category != CategoryOther {
			cl.Confidence = ConfidenceMedium
		} else {
			cl.Confidence = ConfidenceLow
		}
	}

	cl.Breaking = marker || breakingText(c.Subject, c.Body, wl)

	text := strings.ToLower(c.Subject + " " + c.Body)
	cl.ImpactedFeatures = matchText(text, wl.WatchedFeatures)
	cl.MentionedCustomers = matchText(text, wl.CriticalCustomers)
	cl.HighRiskPaths, cl.MigrationPaths = matchPaths(c.Files, wl)

	return cl
}

// parseConventional extracts the type, scope and breaking marker from
// a structured subject line. ok is false when the subject does not
// follow the convention.
func parseConventional(subject string) (ctype, scope string, breaking, ok bool) {
	m := conventionalRe.FindStringSubmatch(strings.TrimSpace(subject))
	if m == nil {
		return "", "", false, false
	}
	return strings.ToLower(m[1]), m[2], m[3] == "!", true
}

func byKeywords(subject, body string) string {
	text := strings.ToLower(subject + " " + body)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// breakingText checks the body markers and the watchlist keywords.
// The structured "!" marker is handled by the caller.
func breakingText(subject, body string, wl *report.Watchlist) bool {
	bodyLower := strings.ToLower(body)
	for _, marker := range breakingBodyMarkers {
		if strings.Contains(bodyLower, marker) {
			return true
		}
	}
	text := strings.ToLower(subject + " " + body)
	for _, kw := range wl.BreakingChangeKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matchText returns the needles that appear case-insensitively in
// text, preserving needle order.
func matchText(text string, needles []string) []string {
	matched := []string{}
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(n)) {
			matched = append(matched, n)
		}
	}
	return matched
}

// matchPaths returns the high-risk path prefixes and migration
// patterns hit by the commit's changed files. Each watchlist entry
// appears at most once regardless of how many files matched it.
func matchPaths(files []gitlog.FileChange, wl *report.Watchlist) (risk, migration []string) {
	risk = []string{}
	migration = []string{}
	for _, prefix := range wl.HighRiskPaths {
		if prefix == "" {
			continue
		}
		for _, f := range files {
			if strings.HasPrefix(f.Path, prefix) {
				risk = append(risk, prefix)
				break
			}
		}
	}
	for _, pattern := range wl.MigrationPatterns {
		if pattern == "" {
			continue
		}
		for _, f := range files {
			if strings.Contains(f.Path, pattern) {
				migration = append(migration, pattern)
				break
			}
		}
	}
	return risk, migration
}
