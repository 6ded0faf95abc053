package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsmith/internal/refresher"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [repos...]",
	Short: "Re-check existing documents against the current code",
	Long: `Re-analyzes the repositories and asks, per generated document,
whether its content still matches the code it describes. Documents
that drifted are rewritten in place.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
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

	r := refresher.New(app.client, app.docs, app.newAnalyzer())
	res := r.RefreshAll(ctx, flagProductID, repos, func(current, total int, title string) {
		cmd.Printf("[%d/%d] %s\n", current, total, title)
	})

	cmd.Printf("\nChecked: %d  Updated: %d  Unchanged: %d  Errors: %d\n",
		res.Checked, res.Updated, res.Unchanged, res.Errors)
	for _, out := range res.Details {
		if out.Status != refresher.StatusUnchanged {
			cmd.Printf("  %-9s %s: %s\n", out.Status, out.Title, out.Summary)
		}
	}
	if res.Errors > 0 {
		return fmt.Errorf("%d documents could not be refreshed", res.Errors)
	}
	return nil
}
