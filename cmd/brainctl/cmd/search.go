package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kunalkushwaha/agentflow/retrieval"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a direct search against the brain, bypassing the query router",
	Long: `search runs the full hybrid BM25 + vector retrieval strategy (with
knowledge-graph expansion, when configured) against the given query,
regardless of what the router would have classified it as.

Examples:
  brainctl search "Q3 roadmap"
  brainctl search "invoice from Acme" --category documents --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearchCommand,
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum results to return")
	searchCmd.Flags().String("category", "", "restrict results to a single category")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	ctx := context.Background()
	brain, err := buildBrain(ctx, cfg, logger)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("category")

	var filter map[retrieval.Category]struct{}
	if category != "" {
		filter = map[retrieval.Category]struct{}{categoryFlag(category): {}}
	}

	results, err := brain.SearchDirect(ctx, args[0], limit, filter)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no results")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s (score %.4f, %s)\n", i+1, r.Source, r.Text, r.Score, r.MatchType)
		if len(r.EntityContext) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "   entities: %v\n", r.EntityContext)
		}
	}
	return nil
}
