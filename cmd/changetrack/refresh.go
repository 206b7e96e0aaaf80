package main

import (
	"context"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/changetrack/internal/domain"
	"github.com/hochfrequenz/changetrack/internal/github"
	"github.com/hochfrequenz/changetrack/internal/prcache"
)

var refreshSchedule string

func init() {
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch stale or incomplete cached PRs",
		RunE:  runRefresh,
	}
	refreshCmd.Flags().StringVar(&refreshSchedule, "schedule", "", "cron expression; run repeatedly instead of once")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openCache(cfg.General.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := github.NewClient(cfg.GitHub.Repo)
	concurrency := cfg.GitHub.FetchConcurrency

	if refreshSchedule == "" {
		return refreshOnce(cmd.Context(), store, client, concurrency)
	}

	c := cron.New()
	if _, err := c.AddFunc(refreshSchedule, func() {
		if err := refreshOnce(context.Background(), store, client, concurrency); err != nil {
			log.Printf("scheduled refresh failed: %v", err)
		}
	}); err != nil {
		return usageErrorf("invalid --schedule %q: %v", refreshSchedule, err)
	}
	c.Start()
	defer c.Stop()

	log.Printf("refreshing on schedule %q, press Ctrl+C to stop", refreshSchedule)
	waitForInterrupt(cmd.Context())
	return nil
}

// refreshOnce re-fetches every cached PR whose upstream copy changed since it
// was cached, then backfills file lists for PRs cached without them.
func refreshOnce(ctx context.Context, store *prcache.Store, client *github.Client, concurrency int) error {
	numbers, err := store.CachedNumbers()
	if err != nil {
		return err
	}

	var refreshed int
	for _, number := range numbers {
		pr, err := client.PullRequest(ctx, number)
		if err != nil {
			return err
		}
		stale, err := store.IsStale(number, pr.UpdatedAt)
		if err != nil {
			return err
		}
		if !stale {
			continue
		}
		files, err := client.PullRequestFiles(ctx, number)
		if err != nil {
			return err
		}
		pr.Files = files
		if err := store.UpsertPR(pr); err != nil {
			return err
		}
		refreshed++
	}

	missing, err := store.NumbersWithoutFiles()
	if err != nil {
		return err
	}
	backfill := make([]domain.PullRequest, 0, len(missing))
	for _, number := range missing {
		pr, err := store.GetPR(number)
		if err != nil {
			return err
		}
		backfill = append(backfill, pr)
	}
	if err := client.FetchFiles(ctx, backfill, concurrency); err != nil {
		return err
	}
	for _, pr := range backfill {
		if err := store.UpsertPR(pr); err != nil {
			return err
		}
	}

	log.Printf("refreshed %s PR(s), backfilled files for %s",
		humanize.Comma(int64(refreshed)), humanize.Comma(int64(len(backfill))))
	return nil
}
