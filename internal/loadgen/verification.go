package loadgen

import (
	"fmt"
	"sort"

	"github.com/okian/stockroom/internal/domain/types"
)

// ranksBefore is the service's ordering: quantity DESC, then id ASC.
func ranksBefore(a, b types.Item) bool {
	if a.Quantity != b.Quantity {
		return a.Quantity > b.Quantity
	}
	return a.ID < b.ID
}

// expectedOrder returns items sorted the way the service ranks them.
func expectedOrder(items []types.Item) []types.Item {
	out := make([]types.Item, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return ranksBefore(out[i], out[j]) })
	return out
}

// verifyOrdered checks a list is in non-increasing quantity order.
func verifyOrdered(what string, got []types.Item) error {
	for i := 1; i < len(got); i++ {
		if got[i].Quantity > got[i-1].Quantity {
			return fmt.Errorf("%s: entry %d (%s, %d) ranks above entry %d (%s, %d)",
				what, i, got[i].ID, got[i].Quantity, i-1, got[i-1].ID, got[i-1].Quantity)
		}
	}
	return nil
}

// verifyTop checks the service's top list against the local model. Items the
// run did not create are skipped; the rest must be the head of the model's
// ordering with identical fields.
func verifyTop(top []types.Item, expected map[string]types.Item) error {
	if err := verifyOrdered("top", top); err != nil {
		return err
	}
	ours := make([]types.Item, 0, len(top))
	for _, it := range top {
		if _, ok := expected[it.ID]; ok {
			ours = append(ours, it)
		}
	}

	all := make([]types.Item, 0, len(expected))
	for _, it := range expected {
		all = append(all, it)
	}
	want := expectedOrder(all)
	for i, it := range ours {
		if it != want[i] {
			return fmt.Errorf("top: position %d among generated items is %+v, want %+v", i, it, want[i])
		}
	}
	return nil
}

// verifyCategory checks one category list equals the model exactly.
func verifyCategory(category string, got []types.Item, expected []types.Item) error {
	if err := verifyOrdered("category "+category, got); err != nil {
		return err
	}
	want := expectedOrder(expected)
	if len(got) != len(want) {
		return fmt.Errorf("category %s: got %d items, want %d", category, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("category %s: position %d is %+v, want %+v", category, i, got[i], want[i])
		}
	}
	return nil
}
