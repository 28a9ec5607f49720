package cmd

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/spf13/cobra"
)

// 給外部排程 (cron) 用，跑一次就結束
var sweepCmd = &cobra.Command{
	Use:   "sweep-carts",
	Short: "Delete expired guest carts once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
			defer cancel()
			_ = app.Shutdown(ctx)
		}()

		deleted, err := app.CartSweeper.SweepOnce(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("deleted %d expired guest carts\n", deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
