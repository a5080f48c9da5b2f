package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk and index a document into the brain",
	Long: `ingest reads a file from disk, splits it into sentence-packed chunks,
indexes those chunks into the BM25 keyword index (and the vector index, when
hybrid search is enabled), and persists the result to the configured memory
directory.

Examples:
  brainctl ingest notes.txt --category notes
  brainctl ingest inbox.eml --category email --source "inbox/2026-01"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestCommand,
}

func init() {
	ingestCmd.Flags().String("category", "other", "source category: email, notes, documents, calendar, messages, web, other")
	ingestCmd.Flags().String("source", "", "override the source label (defaults to the file path)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngestCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = args[0]
	}
	category, _ := cmd.Flags().GetString("category")

	ctx := context.Background()
	brain, err := buildBrain(ctx, cfg, logger)
	if err != nil {
		return err
	}

	err = brain.Ingest(ctx, string(content), source, categoryFlag(category), nil, func(frac float64, stage string) {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%3.0f%%] %s\n", frac*100, stage)
	})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %s as %q (%d chunks indexed)\n", args[0], source, brain.Stats().Documents)
	return nil
}
