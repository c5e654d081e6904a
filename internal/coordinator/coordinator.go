// Package coordinator drives the confirm-then-refetch mutation flows.
// Every write follows the same explicit state machine:
//
//	Idle -> FormOpen -> Submitting -> Reconciling -> Idle
//
// A single processing flag keeps at most one mutation in flight; quantity
// is never adjusted locally, the authoritative value always comes back
// via a full refetch of both collections.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"stockapp/internal/domain"
)

type State string

const (
	StateIdle        State = "idle"
	StateFormOpen    State = "form_open"
	StateSubmitting  State = "submitting"
	StateReconciling State = "reconciling"
)

// FlowKind names one of the four mutation flows.
type FlowKind string

const (
	FlowAddStock       FlowKind = "add_stock"
	FlowRecordOutgoing FlowKind = "record_outgoing"
	FlowAddItem        FlowKind = "add_item"
	FlowEditItem       FlowKind = "edit_item"
)

var (
	// ErrBusy means another mutation holds the single-flight slot or a
	// form is already open for this session.
	ErrBusy = errors.New("another operation is still in progress")
	// ErrNoForm means a confirm or cancel arrived with no form open.
	ErrNoForm = errors.New("no form is open")
	// ErrWrongFlow means the confirm does not match the open form.
	ErrWrongFlow = errors.New("confirm does not match the open form")
	// ErrUnknownItem means the target item is not in the cached snapshot.
	ErrUnknownItem = errors.New("item not found")
	// ErrValidation marks client-side input rejection; nothing was sent.
	ErrValidation = errors.New("invalid input")
)

// Gateway is the slice of the remote store the coordinator needs.
type Gateway interface {
	FetchAll(ctx context.Context) (domain.Snapshot, error)
	SubmitTransaction(ctx context.Context, itemID, itemName string, amount int, unit domain.Unit, txType domain.TransactionType) (domain.Transaction, error)
	CreateItem(ctx context.Context, name string, unit domain.Unit, minStock float64, stockType domain.StockType) (string, error)
	UpdateItem(ctx context.Context, id, name string, unit domain.Unit, minStock float64, stockType domain.StockType) error
}

// ItemInput carries the mutable fields for the add-item and edit-item
// flows. Quantity is absent on purpose.
type ItemInput struct {
	Name      string
	Unit      domain.Unit
	MinStock  float64
	StockType domain.StockType
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := domain.ParseUnit(string(in.Unit)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.MinStock < 0 {
		return fmt.Errorf("%w: minStock cannot be negative", ErrValidation)
	}
	if _, err := domain.ParseStockType(string(in.StockType)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Coordinator owns one user session's cached snapshot and mutation state.
type Coordinator struct {
	gw     Gateway
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	flow       FlowKind
	selected   *domain.StockItem
	processing bool
	snapshot   domain.Snapshot
	banner     string
}

func New(gw Gateway, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{gw: gw, logger: logger, state: StateIdle}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Flow() FlowKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow
}

// Snapshot returns a copy of the cached collections.
func (c *Coordinator) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := domain.Snapshot{
		Items:        make([]domain.StockItem, len(c.snapshot.Items)),
		Transactions: make([]domain.Transaction, len(c.snapshot.Transactions)),
	}
	copy(out.Items, c.snapshot.Items)
	copy(out.Transactions, c.snapshot.Transactions)
	return out
}

// ConsumeBanner returns the pending top-level error message and clears
// it, so it is shown exactly once on the next render.
func (c *Coordinator) ConsumeBanner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := c.banner
	c.banner = ""
	return msg
}

// Refresh replaces the cached snapshot with the store's current state.
// Reads do not take the single-flight slot.
func (c *Coordinator) Refresh(ctx context.Context) error {
	snap, err := c.gw.FetchAll(ctx)
	if err != nil {
		c.mu.Lock()
		c.banner = err.Error()
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	return nil
}

// OpenAddStock starts the inbound-movement flow for an item.
func (c *Coordinator) OpenAddStock(itemID string) error {
	return c.openItemFlow(FlowAddStock, itemID)
}

// OpenRecordOutgoing starts the outbound-movement flow. Dynamic items
// have no outbound path: their quantity is formula-driven upstream.
func (c *Coordinator) OpenRecordOutgoing(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, err := c.openLocked(FlowRecordOutgoing, itemID)
	if err != nil {
		return err
	}
	if item.StockType != domain.StockTypeManual {
		c.state = StateIdle
		c.selected = nil
		c.flow = ""
		return fmt.Errorf("%w: outgoing stock can only be recorded for manual items", ErrValidation)
	}
	return nil
}

// OpenAddItem starts the new-item flow; there is no target item.
func (c *Coordinator) OpenAddItem() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.openLocked(FlowAddItem, "")
	return err
}

// OpenEditItem starts the edit flow; the form is pre-populated from the
// cached copy of the item, which the caller reads via SelectedItem.
func (c *Coordinator) OpenEditItem(itemID string) error {
	return c.openItemFlow(FlowEditItem, itemID)
}

// SelectedItem returns the item the open form targets.
func (c *Coordinator) SelectedItem() (domain.StockItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return domain.StockItem{}, false
	}
	return *c.selected, true
}

// Cancel closes an open form without sending anything.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFormOpen {
		return ErrNoForm
	}
	c.state = StateIdle
	c.flow = ""
	c.selected = nil
	return nil
}

// ConfirmAddStock submits an inbound movement and reconciles.
func (c *Coordinator) ConfirmAddStock(ctx context.Context, amount int) error {
	item, err := c.beginSubmit(FlowAddStock, func(item *domain.StockItem) error {
		return validateAmount(amount)
	})
	if err != nil {
		return err
	}
	return c.finishSubmit(ctx, FlowAddStock, func(ctx context.Context) error {
		_, err := c.gw.SubmitTransaction(ctx, item.ID, item.Name, amount, item.Unit, domain.TransactionIn)
		return err
	})
}

// ConfirmRecordOutgoing submits an outbound movement and reconciles. The
// cached-quantity ceiling is an advisory client-side guard only; a
// concurrent writer can still drive the server-side balance negative.
func (c *Coordinator) ConfirmRecordOutgoing(ctx context.Context, amount int) error {
	item, err := c.beginSubmit(FlowRecordOutgoing, func(item *domain.StockItem) error {
		if err := validateAmount(amount); err != nil {
			return err
		}
		if float64(amount) > item.Quantity {
			return fmt.Errorf("%w: cannot record more than the available stock (%.0f)", ErrValidation, item.Quantity)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.finishSubmit(ctx, FlowRecordOutgoing, func(ctx context.Context) error {
		_, err := c.gw.SubmitTransaction(ctx, item.ID, item.Name, amount, item.Unit, domain.TransactionOut)
		return err
	})
}

// ConfirmAddItem submits a new item and reconciles; the store initializes
// the quantity, usually to zero.
func (c *Coordinator) ConfirmAddItem(ctx context.Context, input ItemInput) error {
	if _, err := c.beginSubmit(FlowAddItem, func(*domain.StockItem) error {
		return input.validate()
	}); err != nil {
		return err
	}
	return c.finishSubmit(ctx, FlowAddItem, func(ctx context.Context) error {
		_, err := c.gw.CreateItem(ctx, strings.TrimSpace(input.Name), input.Unit, input.MinStock, input.StockType)
		return err
	})
}

// ConfirmEditItem rewrites the selected item's mutable fields and
// reconciles.
func (c *Coordinator) ConfirmEditItem(ctx context.Context, input ItemInput) error {
	item, err := c.beginSubmit(FlowEditItem, func(*domain.StockItem) error {
		return input.validate()
	})
	if err != nil {
		return err
	}
	return c.finishSubmit(ctx, FlowEditItem, func(ctx context.Context) error {
		return c.gw.UpdateItem(ctx, item.ID, strings.TrimSpace(input.Name), input.Unit, input.MinStock, input.StockType)
	})
}

func (c *Coordinator) openItemFlow(flow FlowKind, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.openLocked(flow, itemID)
	return err
}

func (c *Coordinator) openLocked(flow FlowKind, itemID string) (domain.StockItem, error) {
	if c.processing {
		return domain.StockItem{}, ErrBusy
	}
	if c.state != StateIdle {
		return domain.StockItem{}, fmt.Errorf("%w: a %s form is already open", ErrBusy, c.flow)
	}
	var item domain.StockItem
	if itemID != "" {
		found, ok := c.snapshot.ItemByID(itemID)
		if !ok {
			return domain.StockItem{}, ErrUnknownItem
		}
		item = found
		c.selected = &item
	} else {
		c.selected = nil
	}
	c.state = StateFormOpen
	c.flow = flow
	return item, nil
}

// beginSubmit validates the confirm against the open form and moves the
// machine to Submitting, taking the single-flight slot. Validation
// failures keep the form open: nothing was sent, the user just fixes the
// input.
func (c *Coordinator) beginSubmit(flow FlowKind, check func(*domain.StockItem) error) (domain.StockItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processing {
		return domain.StockItem{}, ErrBusy
	}
	if c.state != StateFormOpen {
		return domain.StockItem{}, ErrNoForm
	}
	if c.flow != flow {
		return domain.StockItem{}, ErrWrongFlow
	}
	if err := check(c.selected); err != nil {
		return domain.StockItem{}, err
	}
	c.state = StateSubmitting
	c.processing = true
	var item domain.StockItem
	if c.selected != nil {
		item = *c.selected
	}
	return item, nil
}

// finishSubmit runs the single gateway call, then the mandatory refetch
// of both collections, then returns the machine to Idle. On gateway
// failure the form closes and the message is left for the next render.
func (c *Coordinator) finishSubmit(ctx context.Context, flow FlowKind, call func(context.Context) error) error {
	if err := call(ctx); err != nil {
		c.logger.Warn("mutation failed", "flow", flow, "error", err)
		c.mu.Lock()
		c.banner = err.Error()
		c.toIdleLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = StateReconciling
	c.mu.Unlock()

	snap, err := c.gw.FetchAll(ctx)

	c.mu.Lock()
	if err != nil {
		// The write itself was acknowledged; the stale snapshot stays
		// until the next successful refetch.
		c.banner = err.Error()
	} else {
		c.snapshot = snap
	}
	c.toIdleLocked()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) toIdleLocked() {
	c.state = StateIdle
	c.flow = ""
	c.selected = nil
	c.processing = false
}

func validateAmount(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive integer", ErrValidation)
	}
	return nil
}
