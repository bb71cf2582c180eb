package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/stockroom/internal/domain/model"
)

// alertRecorder captures alerts delivered by the store.
type alertRecorder struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (r *alertRecorder) Notify(_ context.Context, a model.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *alertRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.alerts))
	for i, a := range r.alerts {
		out[i] = a.ItemID
	}
	return out
}

func newTestStore(t *testing.T, threshold int) (*HeapStore, *alertRecorder) {
	t.Helper()
	rec := &alertRecorder{}
	return NewHeapStore(threshold, WithNotifier(rec)), rec
}

func mustVerify(t *testing.T, s *HeapStore) {
	t.Helper()
	if err := s.Verify(context.Background()); err != nil {
		t.Fatalf("indexes inconsistent: %v", err)
	}
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestHeapStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	out, _ := store.Upsert(ctx, model.Item{ID: "101", Name: "Laptop", Category: "Electronics", Quantity: 50})
	if out != model.OutcomeCreated {
		t.Fatalf("expected created, got %s", out)
	}
	got, err := store.Get(ctx, "101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Laptop" || got.Quantity != 50 || got.Category != "Electronics" {
		t.Errorf("unexpected item %v", got)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	_, err = store.Get(ctx, "999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	mustVerify(t, store)
}

func TestHeapStore_ReferenceScenario(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)

	store.Upsert(ctx, model.Item{ID: "101", Name: "Laptop", Category: "Electronics", Quantity: 50})
	store.Upsert(ctx, model.Item{ID: "102", Name: "Phone", Category: "Electronics", Quantity: 5})

	if got := alerts.ids(); !reflect.DeepEqual(got, []string{"102"}) {
		t.Fatalf("expected a single alert for 102, got %v", got)
	}
	a := alerts.alerts[0]
	if a.Name != "Phone" || a.Quantity != 5 || a.Threshold != 10 {
		t.Errorf("unexpected alert %+v", a)
	}

	if _, err := store.SetQuantity(ctx, "102", 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := store.TopK(ctx, 1)
	if len(top) != 1 || top[0].ID != "102" || top[0].Quantity != 60 {
		t.Fatalf("expected 102 with quantity 60 on top, got %v", top)
	}

	out, _ := store.Upsert(ctx, model.Item{ID: "101", Name: "LaptopPro", Category: "Electronics", Quantity: 40})
	if out != model.OutcomeMergedNoop {
		t.Fatalf("expected merged-noop, got %s", out)
	}
	laptop, _ := store.Get(ctx, "101")
	if laptop.Name != "Laptop" || laptop.Quantity != 50 {
		t.Errorf("101 should be unchanged, got %v", laptop)
	}

	if furniture := store.ListByCategory(ctx, "Furniture"); furniture == nil || len(furniture) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", furniture)
	}
	mustVerify(t, store)
}

func TestHeapStore_MergeRule(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)

	store.Upsert(ctx, model.Item{ID: "a", Name: "Alpha", Category: "C", Quantity: 20})
	store.Upsert(ctx, model.Item{ID: "b", Name: "Beta", Category: "C", Quantity: 30})
	beforeList := store.ListByCategory(ctx, "C")
	beforeTop := store.TopK(ctx, 10)

	for _, q := range []int{20, 19, -5} {
		if out, _ := store.Upsert(ctx, model.Item{ID: "a", Name: "Renamed", Category: "C", Quantity: q}); out != model.OutcomeMergedNoop {
			t.Errorf("quantity %d: expected merged-noop, got %s", q, out)
		}
	}
	if !reflect.DeepEqual(beforeList, store.ListByCategory(ctx, "C")) {
		t.Error("category index changed on a no-op merge")
	}
	if !reflect.DeepEqual(beforeTop, store.TopK(ctx, 10)) {
		t.Error("global index changed on a no-op merge")
	}

	if out, _ := store.Upsert(ctx, model.Item{ID: "a", Name: "Renamed", Category: "C", Quantity: 40}); out != model.OutcomeMergedUpdated {
		t.Fatalf("expected merged-updated, got %s", out)
	}
	got, _ := store.Get(ctx, "a")
	if got.Name != "Renamed" || got.Quantity != 40 {
		t.Errorf("merge did not apply, got %v", got)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids(store.ListByCategory(ctx, "C")), want) {
		t.Errorf("category order: want %v, got %v", want, ids(store.ListByCategory(ctx, "C")))
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids(store.TopK(ctx, 2)), want) {
		t.Errorf("global order: want %v, got %v", want, ids(store.TopK(ctx, 2)))
	}
	if len(alerts.ids()) != 0 {
		t.Errorf("no alert expected above threshold, got %v", alerts.ids())
	}
	mustVerify(t, store)
}

func TestHeapStore_MergeBelowThresholdAlerts(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)

	store.Upsert(ctx, model.Item{ID: "x", Name: "X", Category: "C", Quantity: 1})
	store.Upsert(ctx, model.Item{ID: "x", Name: "X2", Category: "C", Quantity: 3})
	store.Upsert(ctx, model.Item{ID: "x", Name: "X3", Category: "C", Quantity: 2})

	if got := alerts.ids(); !reflect.DeepEqual(got, []string{"x", "x"}) {
		t.Errorf("expected alerts on create and on update only, got %v", got)
	}
	if alerts.alerts[1].Name != "X2" {
		t.Errorf("alert should carry the merged name, got %q", alerts.alerts[1].Name)
	}
}

func TestHeapStore_ThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)

	store.Upsert(ctx, model.Item{ID: "eq", Name: "Equal", Category: "C", Quantity: 10})
	if len(alerts.ids()) != 0 {
		t.Fatalf("quantity equal to threshold must not alert, got %v", alerts.ids())
	}
	if _, err := store.SetQuantity(ctx, "eq", 9); err != nil {
		t.Fatal(err)
	}
	if got := alerts.ids(); !reflect.DeepEqual(got, []string{"eq"}) {
		t.Errorf("expected alert after dropping below threshold, got %v", got)
	}
}

func TestHeapStore_AlertClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &alertRecorder{}
	store := NewHeapStore(5, WithNotifier(rec), WithClock(func() time.Time { return fixed }))

	store.Upsert(ctx, model.Item{ID: "m", Name: "Milk", Category: "Groceries", Quantity: 1})
	if len(rec.alerts) != 1 || !rec.alerts[0].At.Equal(fixed) {
		t.Errorf("expected alert stamped with the injected clock, got %+v", rec.alerts)
	}
	if store.Threshold() != 5 {
		t.Errorf("expected threshold 5, got %d", store.Threshold())
	}
}

func TestHeapStore_SetQuantityNotFound(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)
	store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "C", Quantity: 50})

	_, err := store.SetQuantity(ctx, "missing", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Count(ctx) != 1 || len(alerts.ids()) != 0 {
		t.Error("failed update must not change state or alert")
	}
	mustVerify(t, store)
}

func TestHeapStore_ReconciliationReflectsNewKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	for i, q := range []int{10, 20, 30, 40, 50} {
		id := fmt.Sprintf("i%d", i)
		store.Upsert(ctx, model.Item{ID: id, Name: id, Category: "C", Quantity: q})
	}
	store.Upsert(ctx, model.Item{ID: "other", Name: "other", Category: "D", Quantity: 35})

	// lowest goes to the top, highest goes to the bottom
	if _, err := store.SetQuantity(ctx, "i0", 100); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetQuantity(ctx, "i4", 1); err != nil {
		t.Fatal(err)
	}

	wantCategory := []string{"i0", "i3", "i2", "i1", "i4"}
	if got := ids(store.ListByCategory(ctx, "C")); !reflect.DeepEqual(got, wantCategory) {
		t.Errorf("category order: want %v, got %v", wantCategory, got)
	}
	wantTop := []string{"i0", "i3", "other", "i2", "i1", "i4"}
	if got := ids(store.TopK(ctx, store.Count(ctx))); !reflect.DeepEqual(got, wantTop) {
		t.Errorf("global order: want %v, got %v", wantTop, got)
	}
	for _, it := range store.ListByCategory(ctx, "C") {
		if it.ID == "i0" && it.Quantity != 100 {
			t.Errorf("listing should carry the new quantity, got %d", it.Quantity)
		}
	}
	mustVerify(t, store)
}

func TestHeapStore_TieBreaking(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	for _, id := range []string{"d", "b", "a", "c"} {
		store.Upsert(ctx, model.Item{ID: id, Name: id, Category: "C", Quantity: 7})
	}
	want := []string{"a", "b", "c", "d"}
	if got := ids(store.TopK(ctx, 4)); !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}

	// removing one of several tied items must remove exactly that one
	store.Delete(ctx, "c")
	if got := ids(store.ListByCategory(ctx, "C")); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("unexpected survivors %v", got)
	}
	if _, err := store.SetQuantity(ctx, "b", 7); err != nil {
		t.Fatal(err)
	}
	if got := ids(store.TopK(ctx, 3)); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("re-seating a tied item moved others: %v", got)
	}
	mustVerify(t, store)
}

func TestHeapStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10)
	store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "C", Quantity: 50})
	store.Upsert(ctx, model.Item{ID: "b", Name: "B", Category: "D", Quantity: 60})

	if !store.Delete(ctx, "a") {
		t.Error("first delete should report removal")
	}
	afterFirst := store.TopK(ctx, 10)
	if store.Delete(ctx, "a") {
		t.Error("second delete should report nothing removed")
	}
	if !reflect.DeepEqual(afterFirst, store.TopK(ctx, 10)) {
		t.Error("second delete changed state")
	}
	if store.Delete(ctx, "never-existed") {
		t.Error("deleting an unknown id should be a no-op")
	}
	if got := store.Categories(ctx); !reflect.DeepEqual(got, []string{"D"}) {
		t.Errorf("empty bucket should be dropped, got %v", got)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	mustVerify(t, store)
}

func TestHeapStore_TopKBounds(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	if got := store.TopK(ctx, 5); got == nil || len(got) != 0 {
		t.Errorf("empty store should return an empty list, got %#v", got)
	}
	for i := 0; i < 3; i++ {
		store.Upsert(ctx, model.Item{ID: fmt.Sprint(i), Name: "n", Category: "C", Quantity: i})
	}
	if got := store.TopK(ctx, 0); len(got) != 0 {
		t.Errorf("k=0 should return nothing, got %v", got)
	}
	if got := store.TopK(ctx, -1); len(got) != 0 {
		t.Errorf("k<0 should return nothing, got %v", got)
	}
	if got := ids(store.TopK(ctx, 100)); !reflect.DeepEqual(got, []string{"2", "1", "0"}) {
		t.Errorf("k>n should return everything ordered, got %v", got)
	}
}

func TestHeapStore_WritesReturnStoredRecord(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	out, got := store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "C", Quantity: 5})
	if out != model.OutcomeCreated || got.Name != "A" || got.Quantity != 5 {
		t.Fatalf("create: got %s %v", out, got)
	}
	out, got = store.Upsert(ctx, model.Item{ID: "a", Name: "A2", Category: "D", Quantity: 3})
	if out != model.OutcomeMergedNoop || got.Name != "A" || got.Quantity != 5 || got.Category != "C" {
		t.Fatalf("noop: got %s %v", out, got)
	}
	out, got = store.Upsert(ctx, model.Item{ID: "a", Name: "A3", Category: "C", Quantity: 9})
	if out != model.OutcomeMergedUpdated || got.Name != "A3" || got.Quantity != 9 {
		t.Fatalf("merge: got %s %v", out, got)
	}
	got, err := store.SetQuantity(ctx, "a", 2)
	if err != nil || got.Quantity != 2 || got.Name != "A3" {
		t.Fatalf("set quantity: got %v, %v", got, err)
	}
	got, err = store.SetQuantity(ctx, "missing", 2)
	if !errors.Is(err, ErrNotFound) || got != (model.Item{}) {
		t.Fatalf("set quantity on unknown id: got %v, %v", got, err)
	}
}

func TestHeapStore_UpsertRacingDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					store.Delete(ctx, "x")
				}
			}
		}()
	}

	for i := 0; i < 20000; i++ {
		out, got := store.Upsert(ctx, model.Item{ID: "x", Name: "X", Category: "C", Quantity: i % 50})
		if got.ID != "x" || got.Category != "C" {
			close(stop)
			wg.Wait()
			t.Fatalf("iteration %d: %s returned %v", i, out, got)
		}
		if out == model.OutcomeCreated && got.Quantity != i%50 {
			close(stop)
			wg.Wait()
			t.Fatalf("iteration %d: created with quantity %d", i, got.Quantity)
		}
	}
	close(stop)
	wg.Wait()
	mustVerify(t, store)
}

func TestHeapStore_AlertSeqFollowsWrites(t *testing.T) {
	ctx := context.Background()
	store, alerts := newTestStore(t, 10)

	store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "C", Quantity: 1})
	store.Upsert(ctx, model.Item{ID: "b", Name: "B", Category: "C", Quantity: 50})
	_, _ = store.SetQuantity(ctx, "b", 2)
	_, _ = store.SetQuantity(ctx, "a", 3)

	alerts.mu.Lock()
	defer alerts.mu.Unlock()
	if len(alerts.alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts.alerts))
	}
	for i, a := range alerts.alerts {
		if a.Seq != uint64(i+1) {
			t.Errorf("alert %d for %s: expected seq %d, got %d", i, a.ItemID, i+1, a.Seq)
		}
	}
}

func TestHeapStore_SnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)
	store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "C", Quantity: 5})

	list := store.ListByCategory(ctx, "C")
	list[0].Quantity = 999
	top := store.TopK(ctx, 1)
	top[0].Name = "hacked"

	got, _ := store.Get(ctx, "a")
	if got.Quantity != 5 || got.Name != "A" {
		t.Errorf("snapshot mutation leaked into the store: %v", got)
	}
	mustVerify(t, store)
}

func TestHeapStore_CategoryMismatchKeepsStoredCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)
	store.Upsert(ctx, model.Item{ID: "a", Name: "A", Category: "Electronics", Quantity: 5})

	out, _ := store.Upsert(ctx, model.Item{ID: "a", Name: "A2", Category: "Furniture", Quantity: 9})
	if out != model.OutcomeMergedUpdated {
		t.Fatalf("expected merged-updated, got %s", out)
	}
	got, _ := store.Get(ctx, "a")
	if got.Category != "Electronics" || got.Quantity != 9 || got.Name != "A2" {
		t.Errorf("unexpected item %v", got)
	}
	if len(store.ListByCategory(ctx, "Furniture")) != 0 {
		t.Error("item must not be re-bucketed")
	}
	mustVerify(t, store)
}

func TestHeapStore_RandomisedInvariants(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10)
	rng := rand.New(rand.NewSource(42))
	categories := []string{"Electronics", "Furniture", "Groceries", "Toys"}

	// mirror keeps the expected state, category fixed per id
	mirror := map[string]model.Item{}
	for step := 0; step < 3000; step++ {
		id := fmt.Sprintf("id-%d", rng.Intn(60))
		switch rng.Intn(4) {
		case 0, 1:
			cand := model.Item{ID: id, Name: fmt.Sprintf("n%d", step), Category: categories[rng.Intn(len(categories))], Quantity: rng.Intn(100) - 10}
			out, _ := store.Upsert(ctx, cand)
			prev, ok := mirror[id]
			switch {
			case !ok:
				mirror[id] = cand
				if out != model.OutcomeCreated {
					t.Fatalf("step %d: expected created, got %s", step, out)
				}
			case cand.Quantity > prev.Quantity:
				prev.Name, prev.Quantity = cand.Name, cand.Quantity
				mirror[id] = prev
			}
		case 2:
			q := rng.Intn(100) - 10
			_, err := store.SetQuantity(ctx, id, q)
			if prev, ok := mirror[id]; ok {
				if err != nil {
					t.Fatalf("step %d: %v", step, err)
				}
				prev.Quantity = q
				mirror[id] = prev
			} else if !errors.Is(err, ErrNotFound) {
				t.Fatalf("step %d: expected ErrNotFound, got %v", step, err)
			}
		case 3:
			store.Delete(ctx, id)
			delete(mirror, id)
		}
		if step%100 == 0 {
			mustVerify(t, store)
		}
	}
	mustVerify(t, store)

	want := make([]model.Item, 0, len(mirror))
	for _, it := range mirror {
		want = append(want, it)
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].Quantity != want[j].Quantity {
			return want[i].Quantity > want[j].Quantity
		}
		return want[i].ID < want[j].ID
	})
	got := store.TopK(ctx, len(mirror))
	if len(want) == 0 {
		if len(got) != 0 {
			t.Fatalf("expected empty store, got %v", got)
		}
		return
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("final ordering mismatch:\nwant %v\ngot  %v", want, got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Quantity > got[i-1].Quantity {
			t.Fatalf("top-k not non-increasing at %d", i)
		}
	}
}

func TestHeapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i%20)
				store.Upsert(ctx, model.Item{ID: id, Name: id, Category: fmt.Sprintf("c%d", w%3), Quantity: i})
				_, _ = store.SetQuantity(ctx, id, i%17)
				store.TopK(ctx, 5)
				store.ListByCategory(ctx, "c0")
				if i%7 == 0 {
					store.Delete(ctx, id)
				}
			}
		}(w)
	}
	wg.Wait()
	mustVerify(t, store)
}

func BenchmarkHeapStore_SetQuantity(b *testing.B) {
	ctx := context.Background()
	store := NewHeapStore(10)
	const n = 10_000
	for i := 0; i < n; i++ {
		store.Upsert(ctx, model.Item{ID: fmt.Sprint(i), Name: "n", Category: fmt.Sprintf("c%d", i%16), Quantity: i})
	}
	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.SetQuantity(ctx, fmt.Sprint(rng.Intn(n)), rng.Intn(n))
	}
}

func BenchmarkHeapStore_TopK(b *testing.B) {
	ctx := context.Background()
	store := NewHeapStore(10)
	for i := 0; i < 10_000; i++ {
		store.Upsert(ctx, model.Item{ID: fmt.Sprint(i), Name: "n", Category: "c", Quantity: i % 500})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.TopK(ctx, 100)
	}
}
