package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github/itish2003/voicecare/bootstrap"
	"github/itish2003/voicecare/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "voicecare",
	Short: "Voice and chat customer-support assistant",
	Long: `voicecare answers customer questions over a browser channel and a
telephony webhook. Returns and order-status questions get canned answers;
everything else is answered from the documents directory.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $CONFIG_FILE or config.toml)")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	return app, nil
}
