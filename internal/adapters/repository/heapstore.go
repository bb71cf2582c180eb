package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/internal/domain/rankheap"
	"github.com/okian/stockroom/pkg/logger"
	"github.com/okian/stockroom/pkg/metrics"
)

// Heap-based, in-memory Store implementation.
//
// byID is the authoritative record table. Both ordered indexes hold item ids
// and dereference them through byID when comparing, so they always compare
// on the current quantity. Ordering: quantity DESC, then id ASC.
//
// A heap does not notice when the quantity behind an id changes. Every write
// to Quantity is therefore followed by reconcile, which takes the id out of
// its category heap and the global heap by identity and pushes it back.

// HeapStore keeps a record table, per-category heaps and a global heap in sync.
type HeapStore struct {
	mu         sync.RWMutex
	byID       map[string]*model.Item
	byCategory map[string]*rankheap.Heap[string]
	global     *rankheap.Heap[string]

	threshold int
	alertSeq  uint64
	notifier  Notifier
	logger    logger.Logger
	metrics   *metrics.Manager
	now       func() time.Time
}

// NewHeapStore constructs an empty store. Items whose quantity falls strictly
// below threshold after a create or update raise a restocking alert.
func NewHeapStore(threshold int, opts ...Option) *HeapStore {
	s := &HeapStore{
		byID:       make(map[string]*model.Item),
		byCategory: make(map[string]*rankheap.Heap[string]),
		threshold:  threshold,
		notifier:   nopNotifier{},
		logger:     logger.OrNop().Named("store"),
		metrics:    metrics.Global(),
		now:        time.Now,
	}
	s.global = rankheap.New(s.before)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the restocking threshold fixed at construction.
func (s *HeapStore) Threshold() int {
	return s.threshold
}

// before reports whether id a ranks ahead of id b (assumes lock is held).
func (s *HeapStore) before(a, b string) bool {
	ia, ib := s.byID[a], s.byID[b]
	if ia.Quantity != ib.Quantity {
		return ia.Quantity > ib.Quantity
	}
	return a < b
}

// Upsert implements Store.Upsert in O(log n).
func (s *HeapStore) Upsert(ctx context.Context, candidate model.Item) (model.Outcome, model.Item) {
	start := time.Now()

	var (
		outcome  model.Outcome
		stored   model.Item
		alert    *model.Alert
		mismatch string
	)

	s.mu.Lock()
	existing, ok := s.byID[candidate.ID]
	switch {
	case !ok:
		rec := candidate
		s.byID[rec.ID] = &rec
		s.bucket(rec.Category).Push(rec.ID)
		s.global.Push(rec.ID)
		alert = s.checkThreshold(&rec)
		outcome = model.OutcomeCreated
		stored = rec
	case candidate.Quantity > existing.Quantity:
		existing.Name = candidate.Name
		existing.Quantity = candidate.Quantity
		s.reconcile(existing)
		alert = s.checkThreshold(existing)
		outcome = model.OutcomeMergedUpdated
		stored = *existing
	default:
		outcome = model.OutcomeMergedNoop
		stored = *existing
	}
	if ok && candidate.Category != existing.Category {
		mismatch = existing.Category
	}
	items, categories := len(s.byID), len(s.byCategory)
	s.mu.Unlock()

	if mismatch != "" {
		s.metrics.RecordCategoryMismatch()
		s.logger.Warn(ctx, "upsert named a different category; keeping the stored one",
			logger.String("item_id", candidate.ID),
			logger.String("stored_category", mismatch),
			logger.String("requested_category", candidate.Category),
		)
	}
	s.metrics.RecordStoreOperation("upsert", outcome.String(), time.Since(start))
	s.metrics.UpdateStoreSize(items, categories)
	s.emit(ctx, alert)
	return outcome, stored
}

// SetQuantity implements Store.SetQuantity in O(log n).
func (s *HeapStore) SetQuantity(ctx context.Context, id string, quantity int) (model.Item, error) {
	start := time.Now()

	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		s.metrics.RecordStoreOperation("set_quantity", "not_found", time.Since(start))
		s.metrics.RecordErrorByComponent("store", "not_found")
		return model.Item{}, fmt.Errorf("set quantity of %q: %w", id, ErrNotFound)
	}
	rec.Quantity = quantity
	s.reconcile(rec)
	alert := s.checkThreshold(rec)
	stored := *rec
	s.mu.Unlock()

	s.metrics.RecordStoreOperation("set_quantity", "ok", time.Since(start))
	s.emit(ctx, alert)
	return stored, nil
}

// Delete implements Store.Delete in O(log n).
func (s *HeapStore) Delete(ctx context.Context, id string) bool {
	start := time.Now()

	s.mu.Lock()
	rec, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
		if b, found := s.byCategory[rec.Category]; found {
			b.Remove(id)
			if b.Len() == 0 {
				delete(s.byCategory, rec.Category)
			}
		}
		s.global.Remove(id)
	}
	items, categories := len(s.byID), len(s.byCategory)
	s.mu.Unlock()

	outcome := "absent"
	if ok {
		outcome = "removed"
	}
	s.metrics.RecordStoreOperation("delete", outcome, time.Since(start))
	s.metrics.UpdateStoreSize(items, categories)
	return ok
}

// Get implements Store.Get in O(1).
func (s *HeapStore) Get(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.Item{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return *rec, nil
}

// ListByCategory implements Store.ListByCategory. The result is a copy.
func (s *HeapStore) ListByCategory(ctx context.Context, category string) []model.Item {
	start := time.Now()
	defer func() {
		s.metrics.RecordStoreOperation("list_category", "ok", time.Since(start))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byCategory[category]
	if !ok {
		return []model.Item{}
	}
	return s.resolve(b.Top(b.Len()))
}

// TopK implements Store.TopK without touching the global heap.
func (s *HeapStore) TopK(ctx context.Context, k int) []model.Item {
	start := time.Now()
	defer func() {
		s.metrics.RecordStoreOperation("top_k", "ok", time.Since(start))
	}()

	if k <= 0 {
		return []model.Item{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.global.Top(k))
}

// Categories implements Store.Categories.
func (s *HeapStore) Categories(ctx context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.byCategory))
	for c := range s.byCategory {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Count implements Store.Count.
func (s *HeapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Verify checks that the record table and both ordered indexes agree: every
// id appears exactly once in the global heap and once in its own category
// heap, nothing else is indexed, and every heap is validly ordered.
func (s *HeapStore) Verify(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.global.Len(); n != len(s.byID) {
		return fmt.Errorf("%w: global index holds %d ids, table holds %d", ErrInconsistent, n, len(s.byID))
	}
	if !s.global.Valid() {
		return fmt.Errorf("%w: global index out of order", ErrInconsistent)
	}

	indexed := 0
	for category, b := range s.byCategory {
		if b.Len() == 0 {
			return fmt.Errorf("%w: empty bucket %q kept", ErrInconsistent, category)
		}
		if !b.Valid() {
			return fmt.Errorf("%w: bucket %q out of order", ErrInconsistent, category)
		}
		for _, id := range b.Elements() {
			rec, ok := s.byID[id]
			if !ok {
				return fmt.Errorf("%w: bucket %q holds unknown id %q", ErrInconsistent, category, id)
			}
			if rec.Category != category {
				return fmt.Errorf("%w: id %q of %q filed under %q", ErrInconsistent, id, rec.Category, category)
			}
		}
		indexed += b.Len()
	}
	if indexed != len(s.byID) {
		return fmt.Errorf("%w: buckets hold %d ids, table holds %d", ErrInconsistent, indexed, len(s.byID))
	}
	for id := range s.byID {
		if !s.global.Contains(id) {
			return fmt.Errorf("%w: id %q missing from global index", ErrInconsistent, id)
		}
	}
	return nil
}

// bucket returns the category heap, creating it on demand (assumes lock is held).
func (s *HeapStore) bucket(category string) *rankheap.Heap[string] {
	b, ok := s.byCategory[category]
	if !ok {
		b = rankheap.New(s.before)
		s.byCategory[category] = b
	}
	return b
}

// reconcile re-seats rec in both ordered indexes after its quantity changed
// (assumes lock is held).
func (s *HeapStore) reconcile(rec *model.Item) {
	if b, ok := s.byCategory[rec.Category]; ok {
		b.Remove(rec.ID)
		b.Push(rec.ID)
	}
	s.global.Remove(rec.ID)
	s.global.Push(rec.ID)
	s.metrics.RecordReconciliation()
}

// checkThreshold builds an alert when rec is below the restocking threshold
// (assumes lock is held).
func (s *HeapStore) checkThreshold(rec *model.Item) *model.Alert {
	if rec.Quantity >= s.threshold {
		return nil
	}
	s.alertSeq++
	return &model.Alert{
		Seq:       s.alertSeq,
		ItemID:    rec.ID,
		Name:      rec.Name,
		Category:  rec.Category,
		Quantity:  rec.Quantity,
		Threshold: s.threshold,
		At:        s.now(),
	}
}

// emit hands an alert to the notifier outside the lock.
func (s *HeapStore) emit(ctx context.Context, alert *model.Alert) {
	if alert == nil {
		return
	}
	s.metrics.RecordAlertEmitted()
	s.notifier.Notify(ctx, *alert)
}

// resolve copies the records behind ids (assumes lock is held).
func (s *HeapStore) resolve(ids []string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.byID[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}
