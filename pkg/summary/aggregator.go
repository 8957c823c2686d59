package summary

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"thoreinstein.com/relnote/pkg/classify"
	"thoreinstein.com/relnote/pkg/gitlog"
	"thoreinstein.com/relnote/pkg/report"
	"thoreinstein.com/relnote/pkg/risk"
)

// failedTestLimit caps how many failing tests a snapshot carries; CI
// runs with hundreds of failures would otherwise dominate the output.
const failedTestLimit = 10

const timeFormat = "2006-01-02T15:04:05Z"

// Build merges all analysis stages into a Summary. Pure merge: no
// input is mutated, and identical inputs produce an identical summary
// apart from the generated ID and timestamp. ci may be nil; wl must
// not be.
func Build(
	window *gitlog.Window,
	ci *report.CIReport,
	wl *report.Watchlist,
	commits []classify.Classified,
	res risk.Result,
	recs []string,
	now time.Time,
) *Summary {
	s := &Summary{
		ID:              uuid.NewString(),
		Window:          buildWindowMeta(window),
		Risk:            res,
		Recommendations: recs,
		Categories:      buildCategories(commits),
		QASnapshot:      buildQASnapshot(ci),
		CustomerImpacts: buildCustomerImpacts(commits, wl),
		GeneratedAt:     now.UTC().Format(timeFormat),
	}
	if wl.FromDefaults {
		s.Notes = append(s.Notes, "default watchlist in use; no customer-specific data was loaded")
	}
	if !s.QASnapshot.Available {
		s.Notes = append(s.Notes, "no CI report available for this window")
	}
	return s
}

func buildWindowMeta(w *gitlog.Window) WindowMeta {
	return WindowMeta{
		FromRef:         w.FromRef,
		ToRef:           w.ToRef,
		FromSHA:         w.FromSHA,
		ToSHA:           w.ToSHA,
		CommitCount:     w.Stats.TotalCommits,
		FirstCommitDate: w.Stats.FirstCommitDate,
		LastCommitDate:  w.Stats.LastCommitDate,
		Authors:         append([]string(nil), w.Stats.Authors...),
		FilesChanged:    w.Stats.TotalFilesChanged,
		Insertions:      w.Stats.TotalInsertions,
		Deletions:       w.Stats.TotalDeletions,
		Release:         DetectRelease(w.FromRef, w.ToRef),
	}
}

func toRef(c *classify.Classified) CommitRef {
	return CommitRef{
		SHA:            c.SHA,
		Author:         c.Author,
		Date:           c.Date,
		Subject:        c.Subject,
		Body:           c.Body,
		Category:       c.Category,
		FilesChanged:   len(c.Files),
		LinesChanged:   c.LinesChanged,
		Large:          c.Large,
		Breaking:       c.Breaking,
		CustomerImpact: c.ImpactCount() > 0,
	}
}

// buildCategories partitions commits into their category buckets.
// Breaking-flagged commits additionally appear in the breaking bucket
// whatever their category. Each bucket is ordered newest first.
func buildCategories(commits []classify.Classified) Categories {
	var cats Categories
	buckets := map[string]*[]CommitRef{
		classify.CategoryFeature:       &cats.Features,
		classify.CategoryBugfix:        &cats.Bugfixes,
		classify.CategoryPerformance:   &cats.Performance,
		classify.CategoryDocumentation: &cats.Documentation,
		classify.CategoryTesting:       &cats.Testing,
		classify.CategoryChore:         &cats.Chores,
		classify.CategoryRefactor:      &cats.Refactors,
		classify.CategoryOther:         &cats.Other,
	}

	timestamps := map[string]int64{}
	for i := range commits {
		c := &commits[i]
		ref := toRef(c)
		timestamps[c.SHA] = c.Timestamp

		bucket, ok := buckets[c.Category]
		if !ok {
			bucket = &cats.Other
		}
		*bucket = append(*bucket, ref)
		if c.Breaking {
			cats.Breaking = append(cats.Breaking, ref)
		}
	}

	newestFirst := func(refs []CommitRef) {
		sort.SliceStable(refs, func(i, j int) bool {
			return timestamps[refs[i].SHA] > timestamps[refs[j].SHA]
		})
	}
	for _, bucket := range buckets {
		newestFirst(*bucket)
	}
	newestFirst(cats.Breaking)
	return cats
}

func buildQASnapshot(ci *report.CIReport) QASnapshot {
	if ci == nil {
		return QASnapshot{
			Available:   false,
			BuildStatus: report.BuildUnknown,
			FailedTests: []report.FailedTest{},
		}
	}

	failed := ci.FailedTests
	if len(failed) > failedTestLimit {
		failed = failed[:failedTestLimit]
	}
	return QASnapshot{
		Available:       true,
		BuildStatus:     ci.BuildStatus,
		TestSummary:     ci.TestSummary,
		Coverage:        ci.Coverage,
		FailedTests:     append([]report.FailedTest{}, failed...),
		DurationSeconds: ci.DurationSeconds,
	}
}

func buildCustomerImpacts(commits []classify.Classified, wl *report.Watchlist) CustomerImpacts {
	ci := CustomerImpacts{
		UsingDefaults:     wl.FromDefaults,
		ByFeature:         map[string][]ImpactRef{},
		ByCustomer:        map[string][]ImpactRef{},
		ByPath:            map[string][]ImpactRef{},
		WatchedFeatures:   append([]string(nil), wl.WatchedFeatures...),
		CriticalCustomers: append([]string(nil), wl.CriticalCustomers...),
		HighRiskPaths:     append([]string(nil), wl.HighRiskPaths...),
	}

	for i := range commits {
		c := &commits[i]
		ref := ImpactRef{SHA: c.SHA, Subject: c.Subject, Category: c.Category}
		for _, f := range c.ImpactedFeatures {
			ci.ByFeature[f] = append(ci.ByFeature[f], ref)
		}
		for _, cust := range c.MentionedCustomers {
			ci.ByCustomer[cust] = append(ci.ByCustomer[cust], ref)
		}
		for _, p := range c.HighRiskPaths {
			ci.ByPath[p] = append(ci.ByPath[p], ref)
		}
		if c.ImpactCount() > 0 {
			ci.Summary.TotalImpactedCommits++
		}
	}

	ci.Summary.FeaturesImpacted = len(ci.ByFeature)
	ci.Summary.CustomersMentioned = len(ci.ByCustomer)
	ci.Summary.HighRiskPathsChanged = len(ci.ByPath)
	return ci
}
