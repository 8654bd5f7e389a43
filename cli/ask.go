package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [utterance]",
	Short: "Route a single utterance and print the reply",
	Long: `Routes one utterance exactly as the server would, loading (or building)
the knowledge index on demand. There is no readiness gate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full intent decision as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	decision := app.Router.Decide(ctx, strings.Join(args, " "))
	if askJSON {
		data, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal decision: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(decision.Response)
	return nil
}
