package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Query the three-tier memory store",
	Long: `recall scores stored semantic facts, episodic memories, and procedural
rules against the query and prints whichever cross the configured relevance
thresholds.

Examples:
  brainctl recall "what do I usually drink in the morning"`,
	Args: cobra.ExactArgs(1),
	RunE: runRecallCommand,
}

func init() {
	recallCmd.Flags().Int("max-facts", 5, "maximum semantic facts to return")
	recallCmd.Flags().Int("max-episodes", 3, "maximum episodic memories to return")
	rootCmd.AddCommand(recallCmd)
}

func runRecallCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)
	mem := buildMemory(cfg, logger)

	maxFacts, _ := cmd.Flags().GetInt("max-facts")
	maxEpisodes, _ := cmd.Flags().GetInt("max-episodes")

	memCtx, err := mem.Recall(context.Background(), args[0], maxFacts, maxEpisodes)
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}

	if text, ok := memCtx.FormatForPrompt(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "nothing relevant in memory")
	return nil
}
