package cli

import (
	"context"

	"github.com/spf13/cobra"

	"docsmith/internal/analyzer"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [repos...]",
	Short: "Print the codebase fingerprint and whether it changed",
	Long: `Analyzes the repositories, prints the structural fingerprint, and
compares it with the one stored from the last generation run. Useful
for deciding in scripts whether a generate run would do anything.`,
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	repos, err := app.repoSetup(args)
	if err != nil {
		return err
	}

	codebase, err := app.newAnalyzer().Analyze(ctx, repos)
	if err != nil {
		return err
	}

	current := analyzer.Fingerprint(codebase)
	stored, err := app.fps.GetFingerprint(ctx, flagProductID)
	if err != nil {
		return err
	}

	cmd.Printf("Fingerprint: %s\n", current)
	switch {
	case stored == "":
		cmd.Println("No previous fingerprint stored.")
	case analyzer.ShouldSkipGeneration(stored, current):
		cmd.Println("Codebase unchanged since last generation.")
	default:
		cmd.Printf("Codebase changed (was %s).\n", stored)
	}
	return nil
}
