package cli

import (
	"fmt"

	"github.com/okian/stockroom/internal/adapters/console"
	app "github.com/okian/stockroom/internal/app"
	"github.com/okian/stockroom/internal/config"
	"github.com/okian/stockroom/pkg/logger"
	"github.com/spf13/cobra"
)

// ConsoleOptions holds flags for the console command.
type ConsoleOptions struct {
	*RootOptions
	Threshold int
	NoSample  bool
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConsoleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Manage an in-process inventory from a menu",
		Long: `Start an in-process inventory and drive it from a numbered menu.

Configuration is read the same way as the server (STOCKROOM_CONFIG and
STOCKROOM_* variables); flags override it.

Example:
  stockctl console
  stockctl console --threshold 20 --no-sample`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Threshold, "threshold", 0, "restocking threshold (default from config)")
	cmd.Flags().BoolVar(&opts.NoSample, "no-sample", false, "start with an empty inventory")

	return cmd
}

func runConsole(cmd *cobra.Command, opts *ConsoleOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("threshold") {
		cfg.RestockThreshold = opts.Threshold
	}
	if opts.NoSample {
		cfg.SeedSampleData = false
	}

	out := console.NewSyncWriter(cmd.OutOrStdout())
	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithRestockThreshold(cfg.RestockThreshold),
		app.WithSampleData(cfg.SeedSampleData),
		app.WithAlertQueueSize(cfg.AlertQueueSize),
		app.WithAlertWorkerCount(1),
		app.WithRecentAlertLimit(cfg.RecentAlertLimit),
		app.WithAlertSinks(console.NewAlertPrinter(out)),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start inventory: %w", err)
	}
	defer svc.Stop()

	return console.New(svc, cmd.InOrStdin(), out).Run(ctx)
}
