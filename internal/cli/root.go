// Package cli wires the documentation pipeline into a cobra command
// tree. Each subcommand builds its dependencies from the environment
// plus a handful of shared flags.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagProductID   string
	flagProductName string
	flagSource      string
	flagBranch      string
	flagBudget      int
)

var rootCmd = &cobra.Command{
	Use:   "docsmith",
	Short: "Generate and maintain product documentation from source code",
	Long: `docsmith analyzes one or more repositories and writes structured
documentation for them: an overview, architecture notes, API references,
a changelog, and on-demand custom documents.

Repositories are given as positional arguments. With --source github or
--source git they are "owner/name" references; with --source local the
single argument is a path to a working tree.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProductID, "product", "default", "Product ID the documents belong to")
	rootCmd.PersistentFlags().StringVar(&flagProductName, "product-name", "", "Human-readable product name (defaults to the product ID)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "github", "Where to read repositories from: github, git, or local")
	rootCmd.PersistentFlags().StringVar(&flagBranch, "branch", "", "Branch to analyze (defaults to main)")
	rootCmd.PersistentFlags().IntVar(&flagBudget, "token-budget", 0, "Analyzer token budget (0 uses the default)")
}

func productName() string {
	if flagProductName != "" {
		return flagProductName
	}
	return flagProductID
}
