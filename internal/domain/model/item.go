// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is a stocked record. ID and Category are fixed for the lifetime of the
// item; Name and Quantity may change through merges and quantity updates.
type Item struct {
	ID       string
	Name     string
	Category string
	Quantity int // ranking key
}

// Validate checks the fields an adapter must supply before handing an item
// to the store.
func (i Item) Validate() error {
	switch {
	case strings.TrimSpace(i.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	case strings.TrimSpace(i.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidItem)
	case strings.TrimSpace(i.Category) == "":
		return fmt.Errorf("%w: missing category", ErrInvalidItem)
	}
	return nil
}

func (i Item) String() string {
	return fmt.Sprintf("Item{id=%q, name=%q, category=%q, quantity=%d}", i.ID, i.Name, i.Category, i.Quantity)
}

// Alert is raised when an item's quantity drops below the restocking threshold.
// Seq follows the order of the writes that raised the alerts within one store;
// delivery order may differ.
type Alert struct {
	Seq       uint64
	ItemID    string
	Name      string
	Category  string
	Quantity  int
	Threshold int
	At        time.Time
}

// Outcome reports what an upsert did.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeMergedUpdated
	OutcomeMergedNoop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeMergedUpdated:
		return "merged-updated"
	case OutcomeMergedNoop:
		return "merged-noop"
	default:
		return "unknown"
	}
}
