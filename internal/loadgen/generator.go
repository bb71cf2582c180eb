package loadgen

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/stockroom/internal/domain/types"
)

const maxQuantity = 500

// Plan is the sequence of writes one item receives: an initial POST, one
// duplicate POST exercising the merge rule, then quantity updates.
type Plan struct {
	Item      types.Item
	Duplicate types.Item
	Updates   []int
}

// Final is the state the service must hold for the item after the plan ran.
func (p Plan) Final() types.Item {
	final := p.Item
	if p.Duplicate.Quantity > final.Quantity {
		final.Name = p.Duplicate.Name
		final.Quantity = p.Duplicate.Quantity
	}
	if n := len(p.Updates); n > 0 {
		final.Quantity = p.Updates[n-1]
	}
	return final
}

// generatePlans creates one plan per item. Ids are random UUIDs and category
// names carry a per-run prefix so verification ignores data already present.
func generatePlans(cfg *Config, rng *rand.Rand) []Plan {
	run := uuid.NewString()[:8]
	categories := make([]string, cfg.Categories)
	for i := range categories {
		categories[i] = "load-" + run + "-" + strconv.Itoa(i)
	}

	plans := make([]Plan, cfg.NumItems)
	for i := range plans {
		id := uuid.NewString()
		item := types.Item{
			ID:       id,
			Name:     "item-" + strconv.Itoa(i),
			Category: categories[rng.IntN(len(categories))],
			Quantity: rng.IntN(maxQuantity),
		}
		dup := item
		dup.Name = item.Name + "-v2"
		dup.Quantity = rng.IntN(maxQuantity)

		updates := make([]int, cfg.Updates)
		for u := range updates {
			updates[u] = rng.IntN(maxQuantity)
		}
		plans[i] = Plan{Item: item, Duplicate: dup, Updates: updates}
	}
	return plans
}
