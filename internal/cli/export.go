package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsmith/internal/docutil"
	"docsmith/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Mirror the product's documents into the configured bucket",
	Long: `Writes every stored document for the product to the S3-compatible
bucket from the BLOB_* configuration, under <product-id>/<docs path>.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.cfg.Blob.Enabled {
		return fmt.Errorf("blob storage is not configured (set BLOB_MINIO_ENDPOINT or BLOB_S3_ENDPOINT)")
	}
	exporter, err := store.NewBlobExporter(store.BlobConfig{
		Endpoint:  app.cfg.Blob.Endpoint,
		Region:    app.cfg.Blob.Region,
		AccessKey: app.cfg.Blob.AccessKey,
		SecretKey: app.cfg.Blob.SecretKey,
		Bucket:    app.cfg.Blob.Bucket,
		UseSSL:    app.cfg.Blob.UseSSL,
	})
	if err != nil {
		return err
	}

	docs, err := app.docs.ListByProduct(ctx, flagProductID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No documents to export.")
		return nil
	}

	exported := 0
	for _, doc := range docs {
		path := docutil.GitHubPath(doc.Title, doc.Type, doc.FolderPath)
		if err := exporter.Export(ctx, flagProductID, path, doc.Content); err != nil {
			cmd.Printf("Failed to export %q: %v\n", doc.Title, err)
			continue
		}
		exported++
	}
	cmd.Printf("Exported %d/%d documents to bucket %q.\n", exported, len(docs), app.cfg.Blob.Bucket)
	return nil
}
