package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsmith/internal/generator"
	"docsmith/internal/orchestrator"
	"docsmith/internal/planner"
)

var generateCmd = &cobra.Command{
	Use:   "generate [repos...]",
	Short: "Run the full documentation pipeline for a product",
	Long: `Analyzes the repositories, plans a documentation set, generates the
planned documents, and keeps the changelog and plans folders tidy.
When the codebase is unchanged since the last run, generation is
skipped.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
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

	an := app.newAnalyzer()
	orch := orchestrator.New(
		an,
		planner.New(app.client),
		generator.New(app.client, app.docs),
		app.docs,
		app.fps,
		app.fetcher,
		orchestrator.NewBlueprintAgent(app.client, app.docs, app.fetcher),
	)
	orch.Progress = func(stage, message string) {
		cmd.Printf("[%s] %s\n", stage, message)
	}

	res := orch.Run(ctx, flagProductID, productName(), repos)

	cmd.Printf("\nFlow: %s\n", res.Flow)
	if res.SkippedUnchanged {
		cmd.Println("Codebase unchanged, generation skipped.")
	}
	cmd.Printf("Imported: %d  Generated: %d  Plans moved: %d\n", res.Imported, res.Generated, res.PlansMoved)
	if len(res.Failed) > 0 {
		cmd.Printf("Failed documents: %s\n", strings.Join(res.Failed, ", "))
	}
	if res.Fingerprint != "" {
		cmd.Printf("Fingerprint: %s\n", res.Fingerprint)
	}
	for _, e := range res.Errors {
		cmd.Printf("Warning: %s\n", e)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d documents failed to generate", len(res.Failed))
	}
	return nil
}
