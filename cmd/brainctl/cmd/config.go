package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kunalkushwaha/agentflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate brain configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate a brain.toml configuration file",
	Long: `validate parses the given configuration file (or ./brain.toml when
omitted), applies defaults for anything unset, and runs every section
validator, reporting ALL failures in a single pass rather than stopping at
the first one.

Examples:
  brainctl config validate
  brainctl config validate ./configs/brain.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidateCommand,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidateCommand(cmd *cobra.Command, args []string) error {
	path := "brain.toml"
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	verrs := config.NewValidator().ValidateConfig(cfg)
	if len(verrs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s has %d problem(s):\n", path, len(verrs))
	for _, v := range verrs {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", v.Error())
	}
	return fmt.Errorf("%d validation error(s)", len(verrs))
}
