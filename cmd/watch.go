package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/stockwatch/internal/app"
	"github.com/JakeFAU/stockwatch/internal/config"
	"github.com/JakeFAU/stockwatch/internal/logging"
)

// newWatchCmd creates and configures the 'watch' subcommand, which runs the
// watcher daemon until interrupted.
func newWatchCmd() *cobra.Command {
	var (
		carryOn     bool
		relayServer string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Starts the price and stock watcher",
		Long: `Seeds the in-memory product snapshots from the watch-list, announces
the tracked products, then polls the retailer on an interval and pushes a
notification for every price or availability change it sees.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("carry-on") {
				cfg.Watcher.CarryOn = carryOn
			}
			if relayServer != "" {
				cfg.Relay.Server = relayServer
			}

			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.File)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&carryOn, "carry-on", false, "skip the announcement notifications for products already on the watch-list")
	cmd.Flags().StringVar(&relayServer, "server", "", "override the notification relay server")

	return cmd
}
