package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hochfrequenz/changetrack/internal/config"
	"github.com/hochfrequenz/changetrack/internal/gitlog"
)

// Exit codes per the CLI contract: 1 repository/revision errors,
// 2 invalid arguments, 3 VCS invocation failures.
const (
	exitFailure    = 1
	exitUsage      = 2
	exitVCSFailure = 3
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "changetrack",
		Short: "Track compiler-related changes across Julia releases",
		Long: `changetrack walks a git revision range, correlates squash-merge
commits to pull requests, classifies them against compiler path
prefixes, and emits diffable JSON/CSV reports plus a missing-analyses
gap report for downstream package maintainers.`,
		SilenceUsage: true,
	}
)

// usageError marks invalid command-line input, surfaced before any VCS
// interaction and mapped to exit code 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}
	var invocation *gitlog.InvocationError
	if errors.As(err, &invocation) {
		return exitVCSFailure
	}
	return exitFailure
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
