package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/marketplace/internal/appcontext"
	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Multi-vendor marketplace checkout service",
	Long: `marketplace serves the cart, coupon, checkout, payment and
fulfillment API of a multi-vendor store.

Settings are read from environment variables, optionally layered
over an env file given with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".env", "path to env config file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp serve 以外的指令不需要監看設定檔
func newApp(ctx context.Context, watch bool) (*appcontext.ApplicationContext, error) {
	var cf *config.Config
	if watch {
		cf = config.GetConfig(configPath)
	} else {
		var err error
		cf, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	return appcontext.NewApplicationContext(ctx, cf)
}
