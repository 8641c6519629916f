// Command autodev turns a one-line description of a web service into a
// generated, built and smoke-tested backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "autodev",
	Short: "Generate and verify a backend web server from a description",
	Long: `autodev asks a language model to scope a web service, write its backend
code into a project template, repair it until it builds, then runs it and
checks every GET endpoint it exposes.

Examples:
  # Describe the service on the command line
  autodev run "a website that tracks crypto prices"

  # Skip the confirmation before generated code is run
  autodev run --yes "a todo list with user login"

  # Show the last runs
  autodev history --limit 5`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: user config dir)")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newInitConfigCmd())
	rootCmd.AddCommand(newPromptsCmd())
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the autodev version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "autodev "+version)
	},
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
