package gitlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// DefaultMaxCommits bounds a history query when the caller does not
// supply a limit.
const DefaultMaxCommits = 200

// diffWarningThreshold is the commit count above which include_diffs
// gets a slowness warning attached to the window.
const diffWarningThreshold = 50

// Extractor runs read-only history queries against one repository.
type Extractor struct {
	runner Runner
}

// NewExtractor creates an extractor for the repository at dir. An empty
// dir means the current working directory.
func NewExtractor(dir string, timeout time.Duration, logger *slog.Logger) *Extractor {
	return &Extractor{runner: Runner{Dir: dir, Timeout: timeout, Logger: logger}}
}

// Options controls a single Extract call.
type Options struct {
	FromRef      string
	ToRef        string
	IncludeDiffs bool
	MaxCommits   int
}

// IsRepo reports whether the extractor's directory is inside a git
// repository. It checks the filesystem for a .git directory or file
// (worktrees) before falling back to asking git itself.
func (e *Extractor) IsRepo(ctx context.Context) bool {
	dir := e.runner.Dir
	if dir == "" {
		dir = "."
	}
	gitPath := filepath.Join(dir, ".git")
	if info, err := os.Stat(gitPath); err == nil {
		if info.IsDir() || info.Mode().IsRegular() {
			return true
		}
	}

	_, err := e.runner.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// ResolveRef resolves a tag, branch, or SHA to a full commit SHA.
// An unresolvable ref fails with an invalid-ref error before any log
// operation runs.
func (e *Extractor) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := e.runner.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		if relerrors.Is(err, errUnknownRevision) {
			return "", relerrors.NewInvalidRef(ref)
		}
		return "", err
	}
	return out, nil
}

// CommitCount counts non-merge commits in fromRef..toRef.
func (e *Extractor) CommitCount(ctx context.Context, fromRef, toRef string) (int, error) {
	out, err := e.runner.run(ctx, "rev-list", "--count", "--no-merges", fromRef+".."+toRef)
	if err != nil {
		if relerrors.Is(err, errUnknownRevision) {
			return 0, e.blameRef(ctx, fromRef, toRef)
		}
		return 0, err
	}

	count, convErr := strconv.Atoi(out)
	if convErr != nil {
		return 0, relerrors.NewInternalError("unparseable rev-list output").WithCause(convErr)
	}
	return count, nil
}

// blameRef determines which of two refs failed to resolve.
func (e *Extractor) blameRef(ctx context.Context, fromRef, toRef string) error {
	if _, err := e.ResolveRef(ctx, fromRef); err != nil {
		return relerrors.NewInvalidRef(fromRef)
	}
	return relerrors.NewInvalidRef(toRef)
}

// Extract returns the history window between two refs.
//
// The range is validated before any log parsing: both refs must
// resolve, the range must be non-empty, and the commit count must not
// exceed opts.MaxCommits. A range over the limit fails outright instead
// of being truncated, because statistics computed over a partial window
// would be silently wrong.
func (e *Extractor) Extract(ctx context.Context, opts Options) (*Window, error) {
	maxCommits := opts.MaxCommits
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCommits
	}

	if !e.IsRepo(ctx) {
		dir := e.runner.Dir
		if dir == "" {
			dir = "."
		}
		return nil, relerrors.NewRepoNotFound(dir)
	}

	fromSHA, err := e.ResolveRef(ctx, opts.FromRef)
	if err != nil {
		return nil, err
	}
	toSHA, err := e.ResolveRef(ctx, opts.ToRef)
	if err != nil {
		return nil, err
	}

	if fromSHA == toSHA {
		return nil, relerrors.NewEmptyRange(opts.FromRef, opts.ToRef)
	}

	count, err := e.CommitCount(ctx, opts.FromRef, opts.ToRef)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, relerrors.NewEmptyRange(opts.FromRef, opts.ToRef)
	}
	if count > maxCommits {
		return nil, relerrors.NewLimitExceeded(count, maxCommits)
	}

	var warnings []string
	if opts.IncludeDiffs && count > diffWarningThreshold {
		warnings = append(warnings,
			fmt.Sprintf("including diffs for %d commits may be slow", count))
	}

	args := []string{
		"log",
		"--no-merges",
		"--format=" + logFormat,
		"--numstat",
		opts.FromRef + ".." + opts.ToRef,
	}
	if opts.IncludeDiffs {
		args = append(args, "-p")
	}

	raw, err := e.runner.run(ctx, args...)
	if err != nil {
		if relerrors.Is(err, errUnknownRevision) {
			return nil, e.blameRef(ctx, opts.FromRef, opts.ToRef)
		}
		return nil, err
	}

	commits := parseLog(raw, e.runner.logger())

	window := &Window{
		FromRef:  opts.FromRef,
		ToRef:    opts.ToRef,
		FromSHA:  fromSHA,
		ToSHA:    toSHA,
		Commits:  commits,
		Stats:    buildStats(commits),
		Warnings: warnings,
	}

	e.runner.logger().Info("extracted history window",
		"from", opts.FromRef, "to", opts.ToRef, "commits", len(commits))

	return window, nil
}
