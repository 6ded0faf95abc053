package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docsmith/internal/generator"
)

var (
	flagCustomRequest string
	flagCustomTitle   string
	flagCustomType    string
	flagCustomFormat  string
	flagCustomFor     string
	flagCustomFocus   []string
)

var customCmd = &cobra.Command{
	Use:   "custom [repos...]",
	Short: "Generate one document from a free-text request",
	Long: `Generates a single document answering a free-text request, grounded
in the analyzed code and checked against it for invented endpoints,
models, and technologies.`,
	RunE: runCustom,
}

func init() {
	customCmd.Flags().StringVarP(&flagCustomRequest, "request", "r", "", "What the document should cover (required)")
	customCmd.Flags().StringVar(&flagCustomTitle, "title", "", "Document title (default: suggested by the model)")
	customCmd.Flags().StringVar(&flagCustomType, "type", "", "Document type: how-to, wiki, overview, technical, or guide")
	customCmd.Flags().StringVar(&flagCustomFormat, "format", "", "Format style: technical, presentation, essay, email, or how-to-guide")
	customCmd.Flags().StringVar(&flagCustomFor, "audience", "", "Who the document is for")
	customCmd.Flags().StringSliceVar(&flagCustomFocus, "focus", nil, "Paths the document should focus on (repeatable)")
	_ = customCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(customCmd)
}

func runCustom(cmd *cobra.Command, args []string) error {
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

	jobID := uuid.NewString()
	if _, err := app.jobs.Create(ctx, jobID, flagProductID); err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	gen := generator.NewCustom(app.client, app.docs, app.jobs, app.newAnalyzer())
	res := gen.Generate(ctx, generator.CustomRequest{
		ProductID:   flagProductID,
		JobID:       jobID,
		Request:     flagCustomRequest,
		Title:       flagCustomTitle,
		DocType:     flagCustomType,
		FormatStyle: flagCustomFormat,
		Audience:    flagCustomFor,
		FocusPaths:  flagCustomFocus,
	}, repos)

	if !res.Success {
		return fmt.Errorf("generation failed: %s", res.Error)
	}

	if res.Document != nil {
		cmd.Printf("Saved %q (%s) in %s after %s\n",
			res.Document.Title, res.Document.Type, res.Document.FolderPath, res.GenerationTime.Round(time.Millisecond))
	}
	cmd.Println()
	cmd.Println(res.Content)
	return nil
}
