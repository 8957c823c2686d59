package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"thoreinstein.com/relnote/pkg/config"
	relerrors "thoreinstein.com/relnote/pkg/errors"
)

var cfgFile string
var verbose bool
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relnote",
	Short: "Relnote - release analysis from git history",
	Long: `Relnote analyzes the commit window between two git refs: it classifies
commits, matches them against a customer watchlist, folds in CI results,
and scores the release risk.

It can run as a JSON-RPC server over stdio for agent integrations, or
produce a release summary directly from the command line.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		// Diagnostics go to stderr; stdout may be a protocol stream.
		os.Stderr.WriteString(relerrors.FormatUserError(err) + "\n")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		cobra.CheckErr(initConfig())
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/relnote/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

// newLogger builds the process logger. Everything logs to stderr:
// stdout belongs to the protocol stream or the rendered summary.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadedConfig returns the config initialized by cobra, loading it on
// demand when a command runs outside the normal Execute path (tests).
func loadedConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	return config.Load()
}
