package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/changetrack/internal/domain"
	"github.com/hochfrequenz/changetrack/internal/gitlog"
	"github.com/hochfrequenz/changetrack/internal/notify"
	"github.com/hochfrequenz/changetrack/internal/prcache"
	"github.com/hochfrequenz/changetrack/internal/report"
)

var (
	collectRepo    string
	collectStart   string
	collectEnd     string
	collectPaths   string
	collectOutput  string
	collectFormat  string
	collectScope   string
	collectTimeout time.Duration
	collectRecord  bool
	collectNotify  bool
)

func init() {
	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect compiler-related changes between two refs",
		RunE:  runCollect,
	}
	collectCmd.Flags().StringVar(&collectRepo, "repo", "", "path to the git repository")
	collectCmd.Flags().StringVar(&collectStart, "start-tag", "", "start ref (exclusive)")
	collectCmd.Flags().StringVar(&collectEnd, "end-tag", "", "end ref (inclusive)")
	collectCmd.Flags().StringVar(&collectPaths, "paths", "", "comma-separated path prefixes (replaces the configured defaults)")
	collectCmd.Flags().StringVar(&collectOutput, "output", "", "output file (stdout when omitted)")
	collectCmd.Flags().StringVar(&collectFormat, "format", "", "output format: json or csv (default: inferred from --output extension, else json)")
	collectCmd.Flags().StringVar(&collectScope, "scope", string(report.ScopeCompilerOnly), "scope filter: all or compiler-only")
	collectCmd.Flags().DurationVar(&collectTimeout, "timeout", 0, "git subprocess timeout (default from config)")
	collectCmd.Flags().BoolVar(&collectRecord, "record", false, "record the run in the PR cache")
	collectCmd.Flags().BoolVar(&collectNotify, "notify", false, "post a run summary to the configured Slack webhook")
	rootCmd.AddCommand(collectCmd)
}

// collectOptions carries everything one collection pipeline run needs.
type collectOptions struct {
	RepoPath string
	StartRef string
	EndRef   string
	Prefixes []string
	Format   report.Format
	Scope    report.Scope
	Timeout  time.Duration
}

// collectResult is the fully constructed report, built in memory
// before anything is written so a failed write can name exactly what
// was lost.
type collectResult struct {
	Groups        []*domain.PullRequestGroup
	Records       []report.Record
	Output        []byte
	ParseWarnings int
}

func collect(ctx context.Context, opts collectOptions) (*collectResult, error) {
	resolver := gitlog.NewResolver(opts.RepoPath)
	if opts.Timeout > 0 {
		resolver.Timeout = opts.Timeout
	}

	commits, err := resolver.Resolve(ctx, opts.StartRef, opts.EndRef)
	if err != nil {
		return nil, err
	}

	groups := report.GroupByPR(commits)
	report.MarkScope(groups, opts.Prefixes)

	var buf bytes.Buffer
	if err := report.Emit(&buf, groups, opts.Format, opts.Scope); err != nil {
		return nil, err
	}

	return &collectResult{
		Groups:        groups,
		Records:       report.BuildRecords(groups, opts.Scope),
		Output:        buf.Bytes(),
		ParseWarnings: report.CountParseWarnings(commits),
	}, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repoPath := collectRepo
	if repoPath == "" {
		repoPath = cfg.General.RepoPath
	}
	if repoPath == "" {
		return usageErrorf("--repo is required (or set general.repo_path in the config)")
	}
	if collectStart == "" || collectEnd == "" {
		return usageErrorf("--start-tag and --end-tag are required")
	}

	scope, err := report.ParseScope(collectScope)
	if err != nil {
		return &usageError{err: err}
	}

	format := report.InferFormat(collectOutput)
	if collectFormat != "" {
		format, err = report.ParseFormat(collectFormat)
		if err != nil {
			return &usageError{err: err}
		}
	}

	prefixes := cfg.Scope.Prefixes
	if collectPaths != "" {
		prefixes = splitPaths(collectPaths)
	}
	if scope == report.ScopeCompilerOnly && len(prefixes) == 0 {
		return usageErrorf("empty path prefix list: nothing would be in scope")
	}

	timeout := collectTimeout
	if timeout <= 0 {
		timeout = cfg.GitTimeout()
	}

	result, err := collect(cmd.Context(), collectOptions{
		RepoPath: repoPath,
		StartRef: collectStart,
		EndRef:   collectEnd,
		Prefixes: prefixes,
		Format:   format,
		Scope:    scope,
		Timeout:  timeout,
	})
	if err != nil {
		return err
	}

	if collectOutput == "" {
		if _, err := os.Stdout.Write(result.Output); err != nil {
			return err
		}
	} else if err := os.WriteFile(collectOutput, result.Output, 0o644); err != nil {
		return writeErrorf(err, len(result.Output), len(result.Records))
	}

	run := domain.RunSummary{
		StartRef:       collectStart,
		EndRef:         collectEnd,
		StartedAt:      time.Now(),
		Groups:         len(result.Groups),
		CompilerGroups: countCompilerRelated(result.Groups),
		ParseWarnings:  result.ParseWarnings,
	}

	// Warnings are summarized once, on stderr, after the report data.
	if result.ParseWarnings > 0 {
		log.Printf("warning: %s commit(s) carried no PR reference and were kept as singleton groups",
			humanize.Comma(int64(result.ParseWarnings)))
	}
	if collectOutput != "" {
		log.Printf("wrote %s record(s) (%s) to %s",
			humanize.Comma(int64(len(result.Records))),
			humanize.Bytes(uint64(len(result.Output))),
			collectOutput)
	}

	if collectRecord {
		if err := recordRun(cfg.General.CachePath, run); err != nil {
			return err
		}
	}
	if collectNotify {
		notifier := notify.NewSlackNotifier(cfg.Notify.SlackWebhook)
		if err := notifier.Send(notify.RunNotification(run)); err != nil {
			log.Printf("warning: slack notification failed: %v", err)
		}
	}
	return nil
}

func splitPaths(csv string) []string {
	var prefixes []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

func countCompilerRelated(groups []*domain.PullRequestGroup) int {
	n := 0
	for _, g := range groups {
		if g.CompilerRelated {
			n++
		}
	}
	return n
}

func recordRun(cachePath string, run domain.RunSummary) error {
	store, err := openCache(cachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.RecordRun(run)
	if err != nil {
		return err
	}
	log.Printf("recorded run %s", id)
	return nil
}

func writeErrorf(err error, byteCount, recordCount int) error {
	return &outputWriteError{err: err, bytes: byteCount, records: recordCount}
}

// outputWriteError reports a fully built report that failed to
// persist, naming the size so disk-full and permission problems are
// distinguishable at a glance.
type outputWriteError struct {
	err     error
	bytes   int
	records int
}

func (e *outputWriteError) Error() string {
	return "writing report (" + humanize.Comma(int64(e.records)) + " records, " +
		humanize.Bytes(uint64(e.bytes)) + "): " + e.err.Error()
}

func (e *outputWriteError) Unwrap() error { return e.err }

func openCache(path string) (*prcache.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	return prcache.Open(path)
}
