package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the knowledge index from the documents directory",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Knowledge.Rebuild(ctx); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	cmd.Printf("Knowledge base built from %s\n", app.Config.Knowledge.DocsDir)
	return nil
}
