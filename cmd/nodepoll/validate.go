package main

import (
	"fmt"

	"github.com/nodepoll/nodepoll/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the manager.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a nodepoll configuration file without starting the manager.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  nodepoll validate -c config.yaml
  nodepoll validate --config /etc/nodepoll/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Count nodes with explicit ids vs generated ones
	explicitIDs := 0
	for _, n := range cfg.Nodes {
		if n.ID != "" {
			explicitIDs++
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:                 %d\n", cfg.Port)
	fmt.Printf("  Poll period:          %s\n", cfg.PollPeriod.Duration())
	fmt.Printf("  Tick interval:        %s\n", cfg.TickInterval.Duration())
	fmt.Printf("  Max concurrent pulls: %d\n", cfg.MaxConcurrentPulls)
	fmt.Printf("  Nodes:                %d (%d with explicit ids)\n",
		len(cfg.Nodes), explicitIDs)

	return nil
}
