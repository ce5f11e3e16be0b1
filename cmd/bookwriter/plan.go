package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/bookwriter/srv/generator"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

var planPages int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the chapter plan for a page count",
	Long: `Print how many chapters a book of the given length gets and how many
words each chapter is asked for. No completion service is contacted.

Examples:
  bookwriter plan --pages 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planPages < 1 || planPages > generator.MaxPages {
			return fmt.Errorf("--pages must be between 1 and %d", generator.MaxPages)
		}
		plan := bookwriter.Plan(planPages)
		fmt.Fprintf(cmd.OutOrStdout(), "Pages: %d\nChapters: %d\nWords per chapter: %d\n",
			planPages, plan.ChapterCount, plan.WordsPerChapter)
		return nil
	},
}

func init() {
	planCmd.Flags().IntVar(&planPages, "pages", 100, "desired page count")

	rootCmd.AddCommand(planCmd)
}
