package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

func init() {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded collection runs",
		RunE:  runRuns,
	}
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cfg.General.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRANGE\tGROUPS\tCOMPILER\tWARNINGS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s..%s\t%d\t%d\t%d\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.StartRef, run.EndRef,
			run.Groups, run.CompilerGroups, run.ParseWarnings)
	}
	return w.Flush()
}
