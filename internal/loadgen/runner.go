package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stockroom/internal/domain/types"
	"github.com/okian/stockroom/pkg/logger"
)

// Run executes a complete load run: health check, concurrent writes, and
// verification of /top and every generated category.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid load config: %w", err)
	}
	log := logger.OrNop().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting stockroom load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("items", cfg.NumItems),
		logger.Int("updates", cfg.Updates),
		logger.Int("workers", cfg.Workers),
		logger.Int("top_k", cfg.TopK),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	plans := generatePlans(cfg, rand.New(rand.NewPCG(seed, seed>>1)))
	stats.ItemsGenerated = len(plans)

	if err := submit(ctx, cfg, client, plans, stats, log); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d requests failed", stats.Failed)
	}

	if err := verify(ctx, cfg, client, plans, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "load run completed",
		logger.Int("created", stats.Created),
		logger.Int("merged", stats.Merged),
		logger.Int("updated", stats.Updated),
		logger.Int("lists_checked", stats.ListsChecked),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// submit runs each plan on one worker so an item's writes stay ordered while
// different items are written concurrently.
func submit(ctx context.Context, cfg *Config, client *Client, plans []Plan, stats *Stats, log logger.Logger) error {
	var created, merged, updated, failed int64
	work := make(chan Plan, cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				if err := runPlan(ctx, client, p, &created, &merged, &updated); err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "plan failed", logger.String("item_id", p.Item.ID), logger.Error(err))
					}
				}
			}
		}()
	}

	var sendErr error
send:
	for _, p := range plans {
		select {
		case <-ctx.Done():
			sendErr = ctx.Err()
			break send
		case work <- p:
		}
	}
	close(work)
	wg.Wait()

	stats.Created = int(created)
	stats.Merged = int(merged)
	stats.Updated = int(updated)
	stats.Failed = int(failed)
	return sendErr
}

func runPlan(ctx context.Context, client *Client, p Plan, created, merged, updated *int64) error {
	res, err := client.Upsert(ctx, p.Item)
	if err != nil {
		return err
	}
	if res.Outcome != "created" {
		return fmt.Errorf("item %s: first post reported %q", p.Item.ID, res.Outcome)
	}
	atomic.AddInt64(created, 1)

	res, err = client.Upsert(ctx, p.Duplicate)
	if err != nil {
		return err
	}
	want := "merged-noop"
	if p.Duplicate.Quantity > p.Item.Quantity {
		want = "merged-updated"
	}
	if res.Outcome != want {
		return fmt.Errorf("item %s: duplicate post reported %q, want %q", p.Item.ID, res.Outcome, want)
	}
	atomic.AddInt64(merged, 1)

	for _, q := range p.Updates {
		if err := client.SetQuantity(ctx, p.Item.ID, q); err != nil {
			return err
		}
		atomic.AddInt64(updated, 1)
	}
	return nil
}

func verify(ctx context.Context, cfg *Config, client *Client, plans []Plan, stats *Stats) error {
	expected := make(map[string]types.Item, len(plans))
	byCategory := make(map[string][]types.Item)
	for _, p := range plans {
		final := p.Final()
		expected[final.ID] = final
		byCategory[final.Category] = append(byCategory[final.Category], final)
	}

	top, err := client.Top(ctx, cfg.TopK)
	if err != nil {
		return err
	}
	if err := verifyTop(top, expected); err != nil {
		return err
	}
	stats.TopChecked = len(top)

	var errs []error
	for category, items := range byCategory {
		got, err := client.Category(ctx, category)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := verifyCategory(category, got, items); err != nil {
			errs = append(errs, err)
			continue
		}
		stats.ListsChecked++
	}
	return errors.Join(errs...)
}
