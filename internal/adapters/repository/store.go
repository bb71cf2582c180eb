// Package repository holds the in-memory inventory store and its indexes.
package repository

import (
	"context"

	"github.com/okian/stockroom/internal/domain/model"
)

// Store provides read/write access to the inventory.
type Store interface {
	// Upsert creates the item, or merges it into an existing one with the same
	// id when the candidate quantity is strictly higher. It never fails.
	// The returned item is the record as it stood when the write finished.
	Upsert(ctx context.Context, item model.Item) (model.Outcome, model.Item)

	// SetQuantity overwrites an item's quantity and returns the updated record.
	// Returns ErrNotFound if the id is unknown; nothing changes in that case.
	SetQuantity(ctx context.Context, id string, quantity int) (model.Item, error)

	// Delete removes the item from every index. Unknown ids are a no-op.
	// Reports whether an item was removed.
	Delete(ctx context.Context, id string) bool

	// Get returns a copy of the item.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Item, error)

	// ListByCategory returns the category's items ordered by quantity desc.
	ListByCategory(ctx context.Context, category string) []model.Item

	// TopK returns up to k items ordered by quantity desc.
	TopK(ctx context.Context, k int) []model.Item

	// Categories returns the names of all non-empty categories, sorted.
	Categories(ctx context.Context) []string

	// Count returns the number of items held.
	Count(ctx context.Context) int
}

// Notifier receives restocking alerts. Implementations must not block.
// Notify runs after the store lock is released, so concurrent writers may
// hand alerts over out of order; Alert.Seq carries the write order.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, alert model.Alert)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, alert model.Alert) { f(ctx, alert) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Alert) {}
