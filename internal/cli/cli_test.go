package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/stockroom/internal/adapters/http/api"
	app "github.com/okian/stockroom/internal/app"
	"github.com/smartystreets/goconvey/convey"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConsoleCommand(t *testing.T) {
	convey.Convey("Given the console command with sample data", t, func() {
		out, err := execute(t, "5\n2\n4\nFurniture\n6\n", "console")

		convey.Convey("Then the menu runs against the seeded inventory", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "=== Inventory Management System ===")
			convey.So(out, convey.ShouldContainSubstring, `Item{id="105", name="Apple", category="Groceries", quantity=100}`)
			convey.So(out, convey.ShouldContainSubstring, `Item{id="103", name="Chair", category="Furniture", quantity=30}`)
			convey.So(out, convey.ShouldContainSubstring, "Exiting system. Goodbye!")
		})
	})

	convey.Convey("Given the console command without sample data", t, func() {
		out, err := execute(t, "5\n3\n6\n", "console", "--no-sample", "--threshold", "5")

		convey.Convey("Then the inventory starts empty", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "No items available.")
		})
	})

	convey.Convey("Given a stray argument", t, func() {
		_, err := execute(t, "", "console", "extra")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestLoadCommand(t *testing.T) {
	svc := app.New()
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	convey.Convey("Given a running service", t, func() {
		out, err := execute(t, "", "load", "--url", srv.URL, "--items", "40", "--workers", "4", "--seed", "9")

		convey.Convey("Then the load run verifies and reports", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "created=40 merged=40 updated=120")
		})
	})

	convey.Convey("Given invalid flags", t, func() {
		_, err := execute(t, "", "load", "--url", srv.URL, "--items", "0")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
