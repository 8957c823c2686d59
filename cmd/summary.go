package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"thoreinstein.com/relnote/pkg/classify"
	relerrors "thoreinstein.com/relnote/pkg/errors"
	"thoreinstein.com/relnote/pkg/gitlog"
	"thoreinstein.com/relnote/pkg/report"
	"thoreinstein.com/relnote/pkg/risk"
	"thoreinstein.com/relnote/pkg/summary"
)

var (
	summaryRepo      string
	summaryCIReport  string
	summaryWatchlist string
	summaryMax       int
	summaryFormat    string
)

// summaryCmd runs the whole analysis pipeline locally and renders the
// result, without going through the protocol server.
var summaryCmd = &cobra.Command{
	Use:   "summary FROM_REF TO_REF",
	Short: "Analyze the release window between two git refs",
	Long: `Analyze the commits between two git refs and print a release summary:
classified commits, customer impacts, risk assessment and QA snapshot.

Examples:
  relnote summary v1.2.0 v1.3.0
  relnote summary v1.2.0 HEAD --max-commits 500
  relnote summary v1.2.0 v1.3.0 --format markdown > RELEASE.md
  relnote summary v1.2.0 v1.3.0 --ci-report build/ci.json --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSummary(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVar(&summaryRepo, "repo", "", "git repository to analyze (default: current directory)")
	summaryCmd.Flags().StringVar(&summaryCIReport, "ci-report", "", "path to CI report JSON (default from config)")
	summaryCmd.Flags().StringVar(&summaryWatchlist, "watchlist", "", "path to customer watchlist JSON (default from config)")
	summaryCmd.Flags().IntVar(&summaryMax, "max-commits", 0, "maximum commits in the window (default from config)")
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "text", "output format: text, markdown, json, yaml")
}

func runSummary(ctx context.Context, fromRef, toRef string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	repoDir := summaryRepo
	if repoDir == "" {
		if repoDir, err = os.Getwd(); err != nil {
			return err
		}
	}
	ciPath := summaryCIReport
	if ciPath == "" {
		ciPath = cfg.Reports.CIReportPath
	}
	wlPath := summaryWatchlist
	if wlPath == "" {
		wlPath = cfg.Reports.WatchlistPath
	}
	maxCommits := summaryMax
	if maxCommits == 0 {
		maxCommits = cfg.Git.MaxCommits
	}

	timeout := time.Duration(cfg.Git.TimeoutSeconds) * time.Second
	extractor := gitlog.NewExtractor(repoDir, timeout, logger)
	window, err := extractor.Extract(ctx, gitlog.Options{
		FromRef:    fromRef,
		ToRef:      toRef,
		MaxCommits: maxCommits,
	})
	if err != nil {
		return err
	}

	ci, err := report.LoadCIReport(ciPath, logger)
	if err != nil {
		return err
	}
	wl, err := report.LoadWatchlist(wlPath, logger)
	if err != nil {
		return err
	}

	classified := classify.Commits(window.Commits, wl, logger)
	assessment := risk.Score(classified, ci)
	recs := risk.Recommendations(assessment, classified, ci)
	result := summary.Build(window, ci, wl, classified, assessment, recs, time.Now())

	return renderSummary(result)
}

func renderSummary(s *summary.Summary) error {
	switch summaryFormat {
	case "text":
		renderText(s)
		return nil
	case "markdown":
		fmt.Print(summary.Markdown(s))
		return nil
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	default:
		return relerrors.Newf("unknown format %q (want text, markdown, json, or yaml)", summaryFormat)
	}
}

func renderText(s *summary.Summary) {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		color.NoColor = true
	}

	header := color.New(color.Bold)
	header.Printf("Release %s to %s\n", s.Window.FromRef, s.Window.ToRef)
	if rel := s.Window.Release; rel != nil {
		fmt.Printf("Version bump: %s\n", rel.Bump)
	}
	fmt.Printf("%d commits, %d files changed, +%d -%d\n\n",
		s.Window.CommitCount, s.Window.FilesChanged, s.Window.Insertions, s.Window.Deletions)

	riskLine := fmt.Sprintf("Risk: %s (score %d)", s.Risk.Level, s.Risk.Score)
	switch s.Risk.Level {
	case risk.LevelHigh:
		color.Red(riskLine)
	case risk.LevelModerate:
		color.Yellow(riskLine)
	default:
		color.Green(riskLine)
	}
	for _, f := range s.Risk.Factors {
		if f.Points > 0 {
			fmt.Printf("  - %s (+%d)\n", f.Reason, f.Points)
		} else {
			fmt.Printf("  - %s\n", f.Reason)
		}
	}
	fmt.Println()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if !interactive {
		t.SetStyle(table.StyleDefault)
	} else {
		t.SetStyle(table.StyleRounded)
	}
	t.AppendHeader(table.Row{"Category", "Count", "Commits"})
	for _, bucket := range []struct {
		name string
		refs []summary.CommitRef
	}{
		{"breaking", s.Categories.Breaking},
		{"features", s.Categories.Features},
		{"bugfixes", s.Categories.Bugfixes},
		{"performance", s.Categories.Performance},
		{"documentation", s.Categories.Documentation},
		{"testing", s.Categories.Testing},
		{"chores", s.Categories.Chores},
		{"refactors", s.Categories.Refactors},
		{"other", s.Categories.Other},
	} {
		if len(bucket.refs) == 0 {
			continue
		}
		t.AppendRow(table.Row{bucket.name, len(bucket.refs), firstSubjects(bucket.refs, 3)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 72, WidthMaxEnforcer: text.WrapSoft},
	})
	t.Render()
	fmt.Println()

	if qa := s.QASnapshot; qa.Available {
		fmt.Printf("Build: %s", qa.BuildStatus)
		if ts := qa.TestSummary; ts != nil {
			fmt.Printf(", tests %d/%d passed, %d failed", ts.Passed, ts.Total, ts.Failed)
		}
		if cov := qa.Coverage; cov != nil && cov.LinePercent != nil {
			fmt.Printf(", coverage %.1f%%", *cov.LinePercent)
		}
		fmt.Println()
	}

	if len(s.Recommendations) > 0 {
		header.Println("Recommendations:")
		for _, r := range s.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	for _, note := range s.Notes {
		fmt.Printf("Note: %s\n", note)
	}
}

func firstSubjects(refs []summary.CommitRef, n int) string {
	out := ""
	for i, ref := range refs {
		if i == n {
			out += fmt.Sprintf("\n... and %d more", len(refs)-n)
			break
		}
		if i > 0 {
			out += "\n"
		}
		out += ref.Subject
	}
	return out
}
