package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/stockroom/internal/loadgen"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultNumItems   = 1000
	defaultUpdates    = 3
	defaultCategories = 8
	defaultTopK       = 50
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Load       loadgen.Config
	RunTimeout time.Duration
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Generate load against a running service and verify its orderings",
		Long: `Create random items concurrently over HTTP, post a duplicate of each,
apply quantity updates, then check /top and every generated category
against a locally maintained model.

Example:
  stockctl load --url http://localhost:9080 --items 5000 --workers 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Load.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&opts.Load.NumItems, "items", defaultNumItems, "number of items to create")
	f.IntVar(&opts.Load.Updates, "updates", defaultUpdates, "quantity updates per item")
	f.IntVar(&opts.Load.Categories, "categories", defaultCategories, "number of categories")
	f.IntVar(&opts.Load.TopK, "top", defaultTopK, "k used when reading /top")
	f.IntVar(&opts.Load.Workers, "workers", runtime.NumCPU()*defaultWorkers, "number of concurrent clients")
	f.DurationVar(&opts.Load.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&opts.RunTimeout, "run-timeout", defaultRunTimeout, "deadline for the whole run")
	f.Uint64Var(&opts.Load.Seed, "seed", 0, "random seed (0 picks one)")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.RunTimeout)
	defer cancel()

	cfg := opts.Load
	cfg.Verbose = opts.Verbose

	stats, err := loadgen.Run(ctx, &cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"created=%d merged=%d updated=%d top_checked=%d categories_checked=%d duration=%s\n",
		stats.Created, stats.Merged, stats.Updated, stats.TopChecked, stats.ListsChecked, stats.Duration)
	return nil
}
