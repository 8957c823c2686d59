package gitlog

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// Runner executes git commands with a shared working directory,
// deadline, and logger. Arguments are always passed as a list, never
// through a shell, so ref strings cannot inject commands.
type Runner struct {
	Dir     string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// run executes git with the given arguments under the runner's timeout
// and returns trimmed stdout. Git failures are classified into typed
// errors by inspecting stderr.
func (r Runner) run(ctx context.Context, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- fixed binary name, args passed as a list
	cmd := exec.CommandContext(ctx, "git", args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("running git", "args", strings.Join(args, " "), "dir", r.Dir)

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		// CommandContext killed the process; report the deadline, not
		// the kill signal.
		return "", relerrors.NewGitTimeout(int(timeout.Seconds()))
	}
	if err != nil {
		return "", r.classify(err, stderr.String())
	}

	return strings.TrimRight(stdout.String(), "\n"), nil
}

// classify maps a git failure onto a typed error using stderr text.
func (r Runner) classify(err error, stderr string) error {
	lower := strings.ToLower(strings.TrimSpace(stderr))

	switch {
	case strings.Contains(lower, "not a git repository"):
		dir := r.Dir
		if dir == "" {
			dir = "."
		}
		return relerrors.NewRepoNotFound(dir).WithCause(err)
	case strings.Contains(lower, "unknown revision"),
		strings.Contains(lower, "bad revision"),
		strings.Contains(lower, "needed a single revision"):
		return errUnknownRevision
	}

	var execErr *exec.Error
	if relerrors.As(err, &execErr) && execErr.Err == exec.ErrNotFound {
		return relerrors.NewInternalError("git executable not found on PATH").WithCause(err)
	}

	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = err.Error()
	}
	return relerrors.NewInternalError("git command failed: " + detail).WithCause(err)
}

// errUnknownRevision is a sentinel for "some ref in the invocation did
// not resolve"; callers attach the offending ref name.
var errUnknownRevision = relerrors.New("unknown revision")
