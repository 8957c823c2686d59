package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	relerrors "thoreinstein.com/relnote/pkg/errors"
	"thoreinstein.com/relnote/pkg/jsonrpc"
	"thoreinstein.com/relnote/pkg/tools"
	"thoreinstein.com/relnote/pkg/version"
)

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC server over stdio",
		Long: `Serve JSON-RPC 2.0 requests with Content-Length framing on stdin and
stdout. The protocol stream owns stdout; all logging goes to stderr.

The server exposes three tools: get_git_history, get_ci_report and
get_customer_watchlist. It runs until stdin reaches EOF or the process
receives SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadedConfig()
			if err != nil {
				return err
			}

			logger := newLogger()
			if repoPath == "" {
				repoPath, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			srv := jsonrpc.NewServer("relnote-server", version.Version, logger)
			tools.Register(srv, tools.Deps{
				Cfg:     cfg,
				Logger:  logger,
				WorkDir: repoPath,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = srv.Run(ctx, os.Stdin, os.Stdout)
			if relerrors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", "", "git repository to serve (default: current directory)")
	return cmd
}
