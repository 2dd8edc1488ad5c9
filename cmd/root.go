// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prstats",
	Short: "A CLI tool to analyze pull-request activity and AI assistance.",
	Long: `prstats analyzes pull-request activity across one or many GitHub
repositories, classifies each pull request by authorship/assistance pattern
(manual, Copilot-reviewed, Copilot-agent-authored, Dependabot), and
aggregates the results into weekly metrics. It is built for unattended
scheduled execution against the rate-limited GitHub REST API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// runLogger builds the logger every command injects downstream: silent by
// default so the JSON on stdout stays clean, on stderr under --verbose.
func runLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", log.LstdFlags)
}

func init() {
	// Persistent flags apply to every subcommand.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
