package cmd

import (
	"fmt"
	"os"

	"github.com/kunalkushwaha/agentflow/cmd/brainctl/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brainctl",
	Short: "brainctl - ingest, search, and recall against a local knowledge brain",
	Long: `brainctl operates a local-first personal knowledge retrieval engine: a
BM25 keyword index, an optional vector index, a knowledge graph expander, and
a three-tier memory store, fused behind a single query router.

INGESTION
  ingest      Chunk and index a document or file into the brain

RETRIEVAL
  search      Run a direct keyword/hybrid/graph search against the brain
  recall      Query the three-tier memory store (semantic/episodic/procedural)

CONFIGURATION
  config validate   Validate a brain.toml configuration file

UTILITIES
  stats       Show index size and memory store statistics
  version     Show version information

GETTING STARTED:
  # Ingest a file into the brain
  brainctl ingest notes.txt --category notes

  # Search the brain directly, bypassing the query router
  brainctl search "roadmap for Q3"

  # Recall what the brain has learned about the user
  brainctl recall "what do I usually drink in the morning"

  # Validate a configuration file
  brainctl config validate brain.toml

For detailed help on any command, use: brainctl <command> --help`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandCategory groups a command for the enhanced help output.
type commandCategory struct {
	Name string
}

var commandCategories = map[string]commandCategory{
	"ingestion": {Name: "Ingestion"},
	"retrieval": {Name: "Retrieval"},
	"config":    {Name: "Configuration"},
	"utility":   {Name: "Utilities"},
}

func getCommandCategory(cmdName string) string {
	switch cmdName {
	case "ingest":
		return "ingestion"
	case "search", "recall":
		return "retrieval"
	case "config":
		return "config"
	default:
		return "utility"
	}
}

const customHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`

func init() {
	rootCmd.SetHelpTemplate(customHelpTemplate)
	rootCmd.PersistentFlags().String("config", "", "path to brain.toml (defaults to ./brain.toml)")
	rootCmd.Flags().BoolP("version", "v", false, "show version information")

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
			fmt.Println(version.GetVersionString())
			return
		}
		showEnhancedHelp(cmd)
	}
}

func showEnhancedHelp(cmd *cobra.Command) {
	fmt.Print(cmd.Long)
	fmt.Println()

	categoryCommands := make(map[string][]*cobra.Command)
	for _, subCmd := range cmd.Commands() {
		if subCmd.Hidden {
			continue
		}
		category := getCommandCategory(subCmd.Name())
		categoryCommands[category] = append(categoryCommands[category], subCmd)
	}

	for _, key := range []string{"ingestion", "retrieval", "config", "utility"} {
		commands, ok := categoryCommands[key]
		if !ok || len(commands) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", commandCategories[key].Name)
		for _, subCmd := range commands {
			fmt.Printf("  %-12s %s\n", subCmd.Name(), subCmd.Short)
		}
	}

	fmt.Printf("\nFlags:\n")
	fmt.Printf("  -h, --help      Show help information\n")
	fmt.Printf("  -v, --version   Show version information\n")
	fmt.Printf("\nUse \"brainctl <command> --help\" for detailed information about a command.\n")
}
