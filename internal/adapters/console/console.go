// Package console drives the inventory through a line-oriented menu over any
// reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	repository "github.com/okian/stockroom/internal/adapters/repository"
	"github.com/okian/stockroom/internal/domain/model"
	"github.com/okian/stockroom/pkg/logger"
)

// Inventory is the subset of the service the menu drives.
type Inventory interface {
	Upsert(ctx context.Context, item model.Item) (model.Outcome, model.Item, error)
	SetQuantity(ctx context.Context, id string, quantity int) (model.Item, error)
	Delete(ctx context.Context, id string) bool
	ListByCategory(ctx context.Context, category string) []model.Item
	TopK(ctx context.Context, k int) []model.Item
}

const menu = `
=== Inventory Management System ===
1. Add Item
2. Update Item Quantity
3. Delete Item
4. View Items by Category
5. View Top K Items by Quantity
6. Exit
Choose an option: `

// errExit ends the loop on the exit option.
var errExit = errors.New("exit")

// Console reads menu choices from in and writes results to out.
type Console struct {
	inv    Inventory
	in     *bufio.Scanner
	out    io.Writer
	logger logger.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets a custom logger for the console.
func WithLogger(l logger.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Console. When alerts are printed to the same destination,
// pass a SyncWriter shared with the AlertPrinter.
func New(inv Inventory, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		inv: inv,
		in:  bufio.NewScanner(in),
		out: out,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.OrNop().Named("console")
	}
	return c
}

// Run shows the menu until the exit option, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printf("%s", menu)

		choice, ok := c.readLine()
		if !ok {
			return c.in.Err()
		}

		err := c.dispatch(ctx, choice)
		switch {
		case errors.Is(err, errExit):
			c.printf("Exiting system. Goodbye!\n")
			return nil
		case errors.Is(err, io.EOF):
			return c.in.Err()
		case err != nil:
			return err
		}
	}
}

func (c *Console) dispatch(ctx context.Context, choice string) error {
	switch strings.TrimSpace(choice) {
	case "1":
		return c.addItem(ctx)
	case "2":
		return c.updateQuantity(ctx)
	case "3":
		return c.deleteItem(ctx)
	case "4":
		return c.viewCategory(ctx)
	case "5":
		return c.viewTop(ctx)
	case "6":
		return errExit
	default:
		c.printf("Invalid option! Please try again.\n")
		return nil
	}
}

func (c *Console) addItem(ctx context.Context) error {
	id, err := c.prompt("Enter Item ID: ")
	if err != nil {
		return err
	}
	name, err := c.prompt("Enter Item Name: ")
	if err != nil {
		return err
	}
	category, err := c.prompt("Enter Item Category: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Enter Item Quantity: ")
	if err != nil || !ok {
		return err
	}

	outcome, stored, err := c.inv.Upsert(ctx, model.Item{ID: id, Name: name, Category: category, Quantity: qty})
	if err != nil {
		c.logger.Debug(ctx, "add item rejected", logger.Error(err))
		c.printf("Invalid item: %v\n", err)
		return nil
	}
	switch outcome {
	case model.OutcomeCreated:
		c.printf("Added new item: %s\n", stored.ID)
	case model.OutcomeMergedUpdated:
		c.printf("Merged item %s: now named %q with quantity %d.\n", stored.ID, stored.Name, stored.Quantity)
	default:
		c.printf("Item %s already exists with equal or higher quantity. No changes made.\n", stored.ID)
	}
	return nil
}

func (c *Console) updateQuantity(ctx context.Context) error {
	id, err := c.prompt("Enter Item ID to Update: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Enter New Quantity: ")
	if err != nil || !ok {
		return err
	}
	it, err := c.inv.SetQuantity(ctx, id, qty)
	if errors.Is(err, repository.ErrNotFound) {
		c.printf("Item not found!\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("console: update quantity: %w", err)
	}
	c.printf("Updated item %s to quantity %d.\n", it.ID, it.Quantity)
	return nil
}

func (c *Console) deleteItem(ctx context.Context) error {
	id, err := c.prompt("Enter Item ID to Delete: ")
	if err != nil {
		return err
	}
	if c.inv.Delete(ctx, id) {
		c.printf("Deleted item %s.\n", id)
	} else {
		c.printf("Item %s not found. Nothing deleted.\n", id)
	}
	return nil
}

func (c *Console) viewCategory(ctx context.Context) error {
	category, err := c.prompt("Enter Category to View: ")
	if err != nil {
		return err
	}
	items := c.inv.ListByCategory(ctx, category)
	if len(items) == 0 {
		c.printf("No items found in this category.\n")
		return nil
	}
	c.printItems(items)
	return nil
}

func (c *Console) viewTop(ctx context.Context) error {
	k, ok, err := c.promptInt("Enter the number of top items to view: ")
	if err != nil || !ok {
		return err
	}
	items := c.inv.TopK(ctx, k)
	if len(items) == 0 {
		c.printf("No items available.\n")
		return nil
	}
	c.printItems(items)
	return nil
}

func (c *Console) printItems(items []model.Item) {
	for _, it := range items {
		c.printf("%s\n", it)
	}
}

// prompt writes label and reads one line; io.EOF when input ran out.
func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	line, ok := c.readLine()
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

// promptInt is prompt for integers. A malformed number is reported to the
// user and yields ok=false without an error.
func (c *Console) promptInt(label string) (int, bool, error) {
	s, err := c.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		c.printf("Invalid number %q! Please try again.\n", s)
		return 0, false, nil
	}
	return n, true, nil
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// SyncWriter serialises writes from the menu and from alert workers.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// AlertPrinter prints restocking alerts as they are dispatched.
type AlertPrinter struct {
	out io.Writer
}

// NewAlertPrinter creates a printer writing to out.
func NewAlertPrinter(out io.Writer) *AlertPrinter {
	return &AlertPrinter{out: out}
}

// Handle implements the alert dispatcher's Sink.
func (p *AlertPrinter) Handle(_ context.Context, a model.Alert) error { //nolint:gocritic // hugeParam
	_, err := fmt.Fprintf(p.out, "\nRestocking Alert: Item %s (%s) is below threshold! quantity=%d threshold=%d\n",
		a.Name, a.ItemID, a.Quantity, a.Threshold)
	return err
}
