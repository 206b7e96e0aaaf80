package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hochfrequenz/changetrack/internal/classify"
	"github.com/hochfrequenz/changetrack/internal/domain"
	"github.com/hochfrequenz/changetrack/internal/gaps"
	"github.com/hochfrequenz/changetrack/internal/report"
	"github.com/hochfrequenz/changetrack/internal/watcher"
)

var (
	missingPRsFile    string
	missingAnalyses   string
	missingCategories string
	missingOutput     string
	missingOrgRepo    string
	missingWatch      bool
)

func init() {
	missingCmd := &cobra.Command{
		Use:   "missing",
		Short: "Report compiler PRs without an analysis file",
		RunE:  runMissing,
	}
	missingCmd.Flags().StringVar(&missingPRsFile, "compiler-prs", "", "JSON report produced by collect")
	missingCmd.Flags().StringVar(&missingAnalyses, "analyses-dir", "", "directory of pr_{number}.* analysis files")
	missingCmd.Flags().StringVar(&missingCategories, "categories", "", "ordered prefix,category rules file")
	missingCmd.Flags().StringVar(&missingOutput, "output", "", "markdown output file")
	missingCmd.Flags().StringVar(&missingOrgRepo, "org-repo", "", "owner/repo used for PR links (default from config)")
	missingCmd.Flags().BoolVar(&missingWatch, "watch", false, "regenerate when the analyses directory changes")
	rootCmd.AddCommand(missingCmd)
}

func runMissing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if missingPRsFile == "" || missingCategories == "" || missingOutput == "" {
		return usageErrorf("--compiler-prs, --categories and --output are required")
	}
	analysesDir := missingAnalyses
	if analysesDir == "" {
		analysesDir = cfg.General.AnalysesDir
	}
	orgRepo := missingOrgRepo
	if orgRepo == "" {
		orgRepo = cfg.GitHub.Repo
	}

	records, err := report.LoadRecords(missingPRsFile)
	if err != nil {
		return err
	}
	groups := make([]*domain.PullRequestGroup, len(records))
	for i, rec := range records {
		groups[i] = rec.Group()
	}

	rules, err := classify.LoadRules(missingCategories)
	if err != nil {
		return err
	}

	generate := func() error {
		rep, err := gaps.FindMissing(groups, analysesDir, rules)
		if err != nil {
			return err
		}
		md := gaps.RenderMarkdown(rep, orgRepo)
		if err := os.WriteFile(missingOutput, []byte(md), 0o644); err != nil {
			return writeErrorf(err, len(md), rep.Missing())
		}
		log.Printf("%d missing, %d covered -> %s", rep.Missing(), rep.Covered, missingOutput)
		return nil
	}

	if err := generate(); err != nil {
		return err
	}
	if !missingWatch {
		return nil
	}

	w, err := watcher.New(analysesDir, func(changed []string) {
		if err := generate(); err != nil {
			log.Printf("regenerate failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	w.Start(cmd.Context())

	log.Printf("watching %s (ctrl-c to stop)", analysesDir)
	waitForInterrupt(cmd.Context())
	return nil
}

func waitForInterrupt(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	select {
	case <-sigs:
	case <-ctx.Done():
	}
}
