package main

import (
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/changetrack/internal/github"
)

var (
	fetchStart       string
	fetchEnd         string
	fetchLimit       int
	fetchForce       bool
	fetchConcurrency int
)

func init() {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch PR metadata between two tags into the local cache",
		RunE:  runFetch,
	}
	fetchCmd.Flags().StringVar(&fetchStart, "start-tag", "", "older tag")
	fetchCmd.Flags().StringVar(&fetchEnd, "end-tag", "", "newer tag")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "maximum PRs to fetch (default from config)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "refetch even when the tag range is cached")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "parallel file-list requests (default from config)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fetchStart == "" || fetchEnd == "" {
		return usageErrorf("--start-tag and --end-tag are required")
	}

	limit := fetchLimit
	if limit <= 0 {
		limit = cfg.GitHub.FetchLimit
	}
	concurrency := fetchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.GitHub.FetchConcurrency
	}

	store, err := openCache(cfg.General.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if !fetchForce {
		if numbers, ok, err := store.TagRange(fetchStart, fetchEnd); err != nil {
			return err
		} else if ok {
			log.Printf("%s..%s already cached (%s PRs); use --force to refetch",
				fetchStart, fetchEnd, humanize.Comma(int64(len(numbers))))
			return nil
		}
	}

	client := github.NewClient(cfg.GitHub.Repo)
	ctx := cmd.Context()

	prs, err := client.PRsBetweenTags(ctx, fetchStart, fetchEnd, limit)
	if err != nil {
		return err
	}
	log.Printf("fetched %s PR(s) for %s..%s, loading changed files...",
		humanize.Comma(int64(len(prs))), fetchStart, fetchEnd)

	if err := client.FetchFiles(ctx, prs, concurrency); err != nil {
		return err
	}

	numbers := make([]int, len(prs))
	for i, pr := range prs {
		if err := store.UpsertPR(pr); err != nil {
			return err
		}
		numbers[i] = pr.Number
	}
	if err := store.SaveTagRange(fetchStart, fetchEnd, numbers); err != nil {
		return err
	}

	log.Printf("cached %s PR(s)", humanize.Comma(int64(len(prs))))
	return nil
}
