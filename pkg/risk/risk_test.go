package risk

import (
	"reflect"
	"strings"
	"testing"

	"thoreinstein.com/relnote/pkg/classify"
	"thoreinstein.com/relnote/pkg/report"
)

func breakingCommit() classify.Classified {
	return classify.Classified{Category: classify.CategoryFeature, Breaking: true}
}

func impactingCommit(features ...string) classify.Classified {
	return classify.Classified{
		Category:         classify.CategoryBugfix,
		ImpactedFeatures: features,
	}
}

func largeCommit() classify.Classified {
	return classify.Classified{Category: classify.CategoryRefactor, Large: true, LinesChanged: 900}
}

func plainCommit() classify.Classified {
	return classify.Classified{Category: classify.CategoryChore}
}

func ciWithCoverage(line float64) *report.CIReport {
	return &report.CIReport{
		BuildStatus: report.BuildPassing,
		Coverage:    &report.Coverage{LinePercent: &line},
	}
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name      string
		commits   []classify.Classified
		ci        *report.CIReport
		wantScore int
		wantLevel string
	}{
		{"empty", nil, nil, 0, LevelLow},
		{"one breaking", []classify.Classified{breakingCommit()}, nil, 2, LevelLow},
		{"three breaking", []classify.Classified{breakingCommit(), breakingCommit(), breakingCommit()}, nil, 6, LevelHigh},
		{"one impact", []classify.Classified{impactingCommit("sso")}, nil, 1, LevelLow},
		{"impact capped at three", []classify.Classified{
			impactingCommit("a"), impactingCommit("b"), impactingCommit("c"),
			impactingCommit("d"), impactingCommit("e"),
		}, nil, 3, LevelModerate},
		{"one large", []classify.Classified{largeCommit()}, nil, 1, LevelLow},
		{"low coverage", []classify.Classified{plainCommit()}, ciWithCoverage(64.2), 1, LevelLow},
		{"good coverage", []classify.Classified{plainCommit()}, ciWithCoverage(92.0), 0, LevelLow},
		{"mixed moderate", []classify.Classified{breakingCommit(), largeCommit()}, nil, 3, LevelModerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.commits, tt.ci)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got.Level, tt.wantLevel)
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, LevelLow}, {2, LevelLow},
		{3, LevelModerate}, {5, LevelModerate},
		{6, LevelHigh}, {40, LevelHigh},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScoreMonotonicInBreakingChanges(t *testing.T) {
	commits := []classify.Classified{impactingCommit("sso"), largeCommit()}
	base := Score(commits, nil).Score
	for i := 1; i <= 5; i++ {
		commits = append(commits, breakingCommit())
		next := Score(commits, nil).Score
		if next < base {
			t.Fatalf("score decreased from %d to %d after adding breaking commit", base, next)
		}
		base = next
	}
}

func TestMissingCINeverScored(t *testing.T) {
	got := Score([]classify.Classified{plainCommit()}, nil)
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0 with no CI report", got.Score)
	}

	var note *Factor
	for i := range got.Factors {
		if strings.Contains(got.Factors[i].Reason, "No CI report") {
			note = &got.Factors[i]
		}
		if strings.Contains(got.Factors[i].Reason, "coverage") {
			t.Errorf("unexpected coverage factor without CI report: %+v", got.Factors[i])
		}
	}
	if note == nil {
		t.Fatal("missing CI report not noted as a factor")
	}
	if note.Points != 0 {
		t.Errorf("missing-CI note carries %d points, want 0", note.Points)
	}
}

func TestZeroPointContextFactors(t *testing.T) {
	commits := []classify.Classified{
		{
			Category:         classify.CategoryBugfix,
			ImpactedFeatures: []string{"billing"},
			HighRiskPaths:    []string{"pkg/payments/"},
			MigrationPaths:   []string{"migrations/"},
		},
	}
	failed := 3
	prev := 90.0
	line := 82.0
	ci := &report.CIReport{
		BuildStatus: report.BuildFailing,
		TestSummary: &report.TestSummary{Total: 100, Passed: 97, Failed: failed},
		Coverage: &report.Coverage{
			LinePercent: &line,
			Previous:    &report.CoveragePoint{LinePercent: &prev},
		},
	}

	got := Score(commits, ci)

	wantReasons := []string{
		"Impacts features: billing",
		"Changes in high-risk paths: pkg/payments/",
		"Schema migrations in window: migrations/",
		"Coverage dropped 8.0% (90.0% to 82.0%)",
		"3 test(s) failing",
	}
	for _, want := range wantReasons {
		found := false
		for _, f := range got.Factors {
			if f.Reason == want {
				found = true
				if f.Points != 0 {
					t.Errorf("factor %q carries %d points, want 0", want, f.Points)
				}
			}
		}
		if !found {
			t.Errorf("factor %q missing from %+v", want, got.Factors)
		}
	}
	// Coverage of 82% is above threshold, so only the impact point scores.
	if got.Score != 1 {
		t.Errorf("Score = %d, want 1", got.Score)
	}
}

func TestScoreDeterministic(t *testing.T) {
	commits := []classify.Classified{
		breakingCommit(),
		impactingCommit("sso", "billing"),
		largeCommit(),
	}
	ci := ciWithCoverage(70.0)

	first := Score(commits, ci)
	second := Score(commits, ci)
	if !reflect.DeepEqual(first, second) {
		t.Error("assessments differ across identical invocations")
	}
}

func TestRecommendations(t *testing.T) {
	commits := []classify.Classified{
		breakingCommit(), breakingCommit(),
		{Category: classify.CategoryBugfix, ImpactedFeatures: []string{"sso"}, HighRiskPaths: []string{"pkg/auth/"}},
		largeCommit(),
	}
	line := 55.0
	ci := &report.CIReport{
		TestSummary: &report.TestSummary{Total: 10, Passed: 8, Failed: 2},
		Coverage:    &report.Coverage{LinePercent: &line},
	}
	res := Score(commits, ci)
	recs := Recommendations(res, commits, ci)

	joined := strings.Join(recs, "\n")
	for _, want := range []string{
		"Review 2 breaking change(s)",
		"Notify customer success",
		"high-risk paths",
		"Manual review of 1 large commit(s)",
		"Fix 2 failing test(s)",
		"Improve test coverage",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q:\n%s", want, joined)
		}
	}
	if res.Level != LevelHigh {
		t.Fatalf("Level = %q, want %q", res.Level, LevelHigh)
	}
	if !strings.Contains(joined, "splitting this release") {
		t.Error("high-risk release missing split recommendation")
	}
}

func TestRecommendationsEmptyForQuietRelease(t *testing.T) {
	res := Score([]classify.Classified{plainCommit()}, ciWithCoverage(95.0))
	recs := Recommendations(res, []classify.Classified{plainCommit()}, ciWithCoverage(95.0))
	if len(recs) != 0 {
		t.Errorf("Recommendations = %v, want none", recs)
	}
}
