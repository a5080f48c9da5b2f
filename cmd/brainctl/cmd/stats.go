package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and memory store statistics",
	RunE:  runStatsCommand,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStatsCommand(cmd *cobra.Command, args []string) error {
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
	mem := buildMemory(cfg, logger)

	stats := brain.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "brain directory: %s\n", cfg.Memory.Dir)
	fmt.Fprintf(out, "  documents:    %d\n", stats.Documents)
	fmt.Fprintf(out, "  unique terms: %d\n", stats.UniqueTerms)
	fmt.Fprintf(out, "  chunks:       %d\n", stats.Chunks)
	fmt.Fprintf(out, "  vector index: %t\n", stats.HasVector)
	fmt.Fprintf(out, "  graph:        %t\n", stats.HasGraph)
	fmt.Fprintf(out, "memory:\n")
	fmt.Fprintf(out, "  semantic facts: %d\n", mem.SemanticCount())
	fmt.Fprintf(out, "  episodes:       %d\n", mem.EpisodicCount())
	fmt.Fprintf(out, "  procedures:     %d\n", mem.ProceduralCount())
	return nil
}
