// Package tools binds the data-gathering operations to the protocol
// server: git history extraction plus the two optional JSON loaders.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"thoreinstein.com/relnote/pkg/config"
	relerrors "thoreinstein.com/relnote/pkg/errors"
	"thoreinstein.com/relnote/pkg/gitlog"
	"thoreinstein.com/relnote/pkg/jsonrpc"
	"thoreinstein.com/relnote/pkg/report"
)

// Deps carries everything the tool handlers need. WorkDir is the
// repository the git tool operates on and the base for relative
// report paths.
type Deps struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	WorkDir string
}

// Register adds the three data-gathering tools to srv. Call once at
// startup, before the server loop runs.
func Register(srv *jsonrpc.Server, deps Deps) {
	srv.Register(jsonrpc.Tool{
		Name:        "get_git_history",
		Description: "Fetch git commit history between two refs with file change statistics",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"from_ref": map[string]any{
					"type":        "string",
					"description": "Starting git ref (tag, branch, SHA)",
				},
				"to_ref": map[string]any{
					"type":        "string",
					"description": "Ending git ref (tag, branch, SHA)",
				},
				"include_diffs": map[string]any{
					"type":        "boolean",
					"description": "Include full patch diffs (warning: expensive for large ranges)",
					"default":     false,
				},
				"max_commits": map[string]any{
					"type":        "integer",
					"description": "Maximum commits to return (default 200, prevents runaway queries)",
					"default":     200,
					"minimum":     1,
				},
			},
			"required":             []any{"from_ref", "to_ref"},
			"additionalProperties": false,
		},
		Handler: gitHistoryHandler(deps),
	})

	srv.Register(jsonrpc.Tool{
		Name:        "get_ci_report",
		Description: "Load and parse CI/CD test report from JSON file",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"report_path": map[string]any{
					"type":        "string",
					"description": "Path to CI report JSON file",
					"default":     config.DefaultCIReportPath,
				},
			},
			"additionalProperties": false,
		},
		Handler: ciReportHandler(deps),
	})

	srv.Register(jsonrpc.Tool{
		Name:        "get_customer_watchlist",
		Description: "Load customer watchlist with critical accounts and features",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"watchlist_path": map[string]any{
					"type":        "string",
					"description": "Path to customer watchlist JSON file",
					"default":     config.DefaultWatchlistPath,
				},
			},
			"additionalProperties": false,
		},
		Handler: watchlistHandler(deps),
	})
}

// gitHistoryParams is the argument shape for get_git_history.
type gitHistoryParams struct {
	FromRef      string `json:"from_ref"`
	ToRef        string `json:"to_ref"`
	IncludeDiffs bool   `json:"include_diffs"`
	MaxCommits   int    `json:"max_commits"`
}

func gitHistoryHandler(deps Deps) jsonrpc.Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		params := gitHistoryParams{MaxCommits: deps.Cfg.Git.MaxCommits}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, relerrors.NewInvalidParams(err.Error()).WithCause(err)
		}

		timeout := time.Duration(deps.Cfg.Git.TimeoutSeconds) * time.Second
		extractor := gitlog.NewExtractor(deps.WorkDir, timeout, deps.Logger)
		return extractor.Extract(ctx, gitlog.Options{
			FromRef:      params.FromRef,
			ToRef:        params.ToRef,
			IncludeDiffs: params.IncludeDiffs,
			MaxCommits:   params.MaxCommits,
		})
	}
}

func ciReportHandler(deps Deps) jsonrpc.Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		params := struct {
			ReportPath string `json:"report_path"`
		}{ReportPath: deps.Cfg.Reports.CIReportPath}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, relerrors.NewInvalidParams(err.Error()).WithCause(err)
		}

		rep, err := report.LoadCIReport(resolve(deps.WorkDir, params.ReportPath), deps.Logger)
		if err != nil {
			return nil, err
		}
		if rep == nil {
			// Explicit null result: "no QA data" is a valid answer.
			return nil, nil
		}
		return rep, nil
	}
}

func watchlistHandler(deps Deps) jsonrpc.Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		params := struct {
			WatchlistPath string `json:"watchlist_path"`
		}{WatchlistPath: deps.Cfg.Reports.WatchlistPath}
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, relerrors.NewInvalidParams(err.Error()).WithCause(err)
		}
		return report.LoadWatchlist(resolve(deps.WorkDir, params.WatchlistPath), deps.Logger)
	}
}
