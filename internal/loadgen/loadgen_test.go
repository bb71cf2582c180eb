package loadgen

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/stockroom/internal/adapters/http/api"
	service "github.com/okian/stockroom/internal/app"
	"github.com/okian/stockroom/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func newTestService(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithSampleData(true))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	srv := newTestService(t)

	convey.Convey("Given a running service that already holds the sample inventory", t, func() {
		cfg := &Config{
			BaseURL:    srv.URL,
			NumItems:   120,
			Updates:    3,
			Categories: 4,
			TopK:       50,
			Workers:    8,
			Timeout:    5 * time.Second,
			Seed:       42,
		}

		convey.Convey("When a load run completes", func() {
			stats, err := Run(context.Background(), cfg)

			convey.Convey("Then every write succeeded and the orderings verify", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Created, convey.ShouldEqual, 120)
				convey.So(stats.Merged, convey.ShouldEqual, 120)
				convey.So(stats.Updated, convey.ShouldEqual, 360)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				convey.So(stats.ListsChecked, convey.ShouldBeGreaterThan, 0)
				convey.So(stats.TopChecked, convey.ShouldEqual, 50)
			})
		})
	})

	convey.Convey("Given an invalid config", t, func() {
		_, err := Run(context.Background(), &Config{BaseURL: srv.URL})
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Given an unreachable service", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", NumItems: 1, Categories: 1, TopK: 1, Workers: 1, Timeout: time.Second}
		_, err := Run(context.Background(), cfg)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestPlanFinal(t *testing.T) {
	convey.Convey("Given plans", t, func() {
		base := types.Item{ID: "a", Name: "n", Category: "c", Quantity: 10}

		convey.Convey("A smaller duplicate and no updates keep the original", func() {
			p := Plan{Item: base, Duplicate: types.Item{ID: "a", Name: "n2", Category: "c", Quantity: 10}}
			convey.So(p.Final(), convey.ShouldResemble, base)
		})

		convey.Convey("A larger duplicate replaces name and quantity", func() {
			p := Plan{Item: base, Duplicate: types.Item{ID: "a", Name: "n2", Category: "c", Quantity: 11}}
			convey.So(p.Final().Name, convey.ShouldEqual, "n2")
			convey.So(p.Final().Quantity, convey.ShouldEqual, 11)
		})

		convey.Convey("The last update decides the quantity", func() {
			p := Plan{Item: base, Duplicate: base, Updates: []int{3, 700, 1}}
			convey.So(p.Final().Quantity, convey.ShouldEqual, 1)
		})
	})
}

func TestGeneratePlans(t *testing.T) {
	convey.Convey("Generated plans use unique ids and run-scoped categories", t, func() {
		cfg := &Config{NumItems: 50, Updates: 2, Categories: 3}
		plans := generatePlans(cfg, rand.New(rand.NewPCG(1, 2)))

		ids := map[string]bool{}
		cats := map[string]bool{}
		for _, p := range plans {
			ids[p.Item.ID] = true
			cats[p.Item.Category] = true
			convey.So(p.Duplicate.ID, convey.ShouldEqual, p.Item.ID)
			convey.So(p.Duplicate.Category, convey.ShouldEqual, p.Item.Category)
			convey.So(p.Updates, convey.ShouldHaveLength, 2)
		}
		convey.So(ids, convey.ShouldHaveLength, 50)
		convey.So(len(cats), convey.ShouldBeLessThanOrEqualTo, 3)
		for c := range cats {
			convey.So(c, convey.ShouldStartWith, "load-")
		}
	})
}

func TestVerification(t *testing.T) {
	convey.Convey("Given a local model", t, func() {
		a := types.Item{ID: "a", Name: "A", Category: "c", Quantity: 5}
		b := types.Item{ID: "b", Name: "B", Category: "c", Quantity: 5}
		c := types.Item{ID: "c", Name: "C", Category: "c", Quantity: 9}
		expected := map[string]types.Item{"a": a, "b": b, "c": c}
		foreign := types.Item{ID: "x", Name: "X", Category: "other", Quantity: 7}

		convey.Convey("A correct top list with foreign items verifies", func() {
			convey.So(verifyTop([]types.Item{c, foreign, a}, expected), convey.ShouldBeNil)
		})

		convey.Convey("A top list that skips an item fails", func() {
			convey.So(verifyTop([]types.Item{c, b}, expected), convey.ShouldNotBeNil)
		})

		convey.Convey("An unordered list fails", func() {
			convey.So(verifyOrdered("x", []types.Item{a, c}), convey.ShouldNotBeNil)
		})

		convey.Convey("A category list must match exactly", func() {
			convey.So(verifyCategory("c", []types.Item{c, a, b}, []types.Item{a, b, c}), convey.ShouldBeNil)
			convey.So(verifyCategory("c", []types.Item{c, b, a}, []types.Item{a, b, c}), convey.ShouldNotBeNil)
			convey.So(verifyCategory("c", []types.Item{c, a}, []types.Item{a, b, c}), convey.ShouldNotBeNil)
		})
	})
}
