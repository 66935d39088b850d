// Package main is the entry point for the nodepoll CLI.
//
// nodepoll can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	nodepoll serve -c config.yaml    # Start the resource manager
//	nodepoll validate -c config.yaml # Validate configuration
//	nodepoll version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "nodepoll",
	Short: "A pull-based cluster resource manager",
	Long: `nodepoll pulls resource reports from node agents on a fixed cadence,
with a global bound on how many pulls are in flight at once, and serves a
live view of cluster resources over HTTP.

Quick start:
  1. Create a config file (nodepoll.yaml)
  2. Run: nodepoll serve -c nodepoll.yaml
  3. Query http://localhost:8080/api/resources

Example config:
  port: 8080
  poll_period: 10s
  max_concurrent_pulls: 50
  nodes:
    - id: node-1
      host: 10.0.0.1
      port: 9090`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this nodepoll binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nodepoll %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
