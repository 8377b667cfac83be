// Package dashboard holds the operator-side inbox state: the message
// collection, the current selection and the view parameters, kept in step
// with the contact store.
//
// Every remote mutation is confirm-then-apply: local state changes only
// after the store accepted the call. Change notifications carry no payload;
// the controller re-lists and replaces the collection wholesale.
package dashboard

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/augmentum/backend/internal/export"
	"github.com/augmentum/backend/internal/inbox"
	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
)

// State is the lifecycle state of a Controller.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// Source is the contact store as seen by the controller.
// service.ContactService satisfies it.
type Source interface {
	List(ctx context.Context) ([]*model.ContactMessage, error)
	// UpdateStatus returns the updated_at value the store wrote.
	UpdateStatus(ctx context.Context, id string, status model.Status) (time.Time, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onChange func()) (repository.Unsubscribe, error)
}

// Options tune controller behaviour.
type Options struct {
	// StrictTransitions rejects status changes outside new -> read -> replied
	// with a *model.TransitionError before the store is called.
	StrictTransitions bool
}

// Controller owns the inbox state. It is safe for concurrent use.
// Concurrent list calls are not fenced: whichever resolves last wins.
type Controller struct {
	src  Source
	log  *slog.Logger
	now  func() time.Time
	opts Options

	mu         sync.Mutex // guards the fields below; never held across src calls
	state      State
	messages   []*model.ContactMessage
	selectedID string
	params     model.ViewParams
}

// New creates a Controller in the loading state. A nil logger means
// slog.Default(); a nil clock means time.Now.
func New(src Source, logger *slog.Logger, now func() time.Time, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Controller{
		src:    src,
		log:    logger.With("component", "dashboard"),
		now:    now,
		opts:   opts,
		state:  StateLoading,
		params: model.DefaultViewParams(),
	}
}

// Init enters loading, lists the store and then becomes ready whether or
// not the list succeeded. On failure the previous collection is kept.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	err := c.reload(ctx)

	c.mu.Lock()
	c.state = StateReady
	n := len(c.messages)
	c.mu.Unlock()
	c.log.Info("dashboard ready", "messages", n, "list_ok", err == nil)
	return err
}

// OnRemoteChange re-lists the store. It is ignored while loading, since
// the initial list already reflects the change.
func (c *Controller) OnRemoteChange(ctx context.Context) error {
	if c.State() == StateLoading {
		c.log.Debug("change ignored while loading")
		return nil
	}
	return c.reload(ctx)
}

// Refresh re-lists the store regardless of state.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.reload(ctx)
}

func (c *Controller) reload(ctx context.Context) error {
	msgs, err := c.src.List(ctx)
	if err != nil {
		c.log.Debug("list failed, keeping previous messages", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// entries are replaced, never mutated in place
	c.messages = slices.Clone(msgs)
	if c.selectedID != "" && c.indexOf(c.selectedID) < 0 {
		c.log.Debug("selected message gone", "id", c.selectedID)
		c.selectedID = ""
	}
	return nil
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.messages, func(m *model.ContactMessage) bool { return m.ID == id })
}

// SelectMessage selects id. It reports false, leaving the selection
// unchanged, when no message has that id.
func (c *Controller) SelectMessage(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) < 0 {
		return false
	}
	c.selectedID = id
	return true
}

// ClearSelection deselects the current message, if any.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selectedID = ""
	c.mu.Unlock()
}

// MarkRead sets the message status to read.
func (c *Controller) MarkRead(ctx context.Context, id string) error {
	return c.SetStatus(ctx, id, model.StatusRead)
}

// MarkReplied sets the message status to replied.
func (c *Controller) MarkReplied(ctx context.Context, id string) error {
	return c.SetStatus(ctx, id, model.StatusReplied)
}

// SetStatus updates the store and, once it succeeded, the local entry.
// The id and created_at of the entry never change. A message missing
// locally is still sent to the store, which decides whether it exists.
func (c *Controller) SetStatus(ctx context.Context, id string, status model.Status) error {
	if c.opts.StrictTransitions {
		c.mu.Lock()
		var from model.Status
		if i := c.indexOf(id); i >= 0 {
			from = c.messages[i].Status
		}
		c.mu.Unlock()
		if from != "" && !from.CanTransitionTo(status) {
			return &model.TransitionError{ID: id, From: from, To: status}
		}
	}

	at, err := c.src.UpdateStatus(ctx, id, status)
	if err != nil {
		c.log.Debug("status update failed, state unchanged", "id", id, "status", status, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		updated := c.messages[i].Clone()
		updated.Status = status
		updated.UpdatedAt = &at
		c.messages[i] = updated
	}
	return nil
}

// DeleteMessage removes the message from the store and then from the
// collection, clearing the selection if it pointed at it.
func (c *Controller) DeleteMessage(ctx context.Context, id string) error {
	if err := c.src.Delete(ctx, id); err != nil {
		c.log.Debug("delete failed, state unchanged", "id", id, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.messages = slices.Delete(c.messages, i, i+1)
	}
	if c.selectedID == id {
		c.selectedID = ""
	}
	return nil
}

// SetViewParams stores the search/status/sort parameters, normalised.
func (c *Controller) SetViewParams(p model.ViewParams) {
	c.mu.Lock()
	c.params = p.Normalize()
	c.mu.Unlock()
}

// ViewParams returns the stored view parameters.
func (c *Controller) ViewParams() model.ViewParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State    State                   `json:"state"`
	Messages []*model.ContactMessage `json:"messages"`
	Selected *model.ContactMessage   `json:"selected"`
	Params   model.ViewParams        `json:"params"`
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state, Messages: c.copyMessages(), Params: c.params}
	if i := c.indexOf(c.selectedID); c.selectedID != "" && i >= 0 {
		s.Selected = c.messages[i].Clone()
	}
	return s
}

// copyMessages must be called with mu held.
func (c *Controller) copyMessages() []*model.ContactMessage {
	out := make([]*model.ContactMessage, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Messages returns a copy of the full collection in store order.
func (c *Controller) Messages() []*model.ContactMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessages()
}

// Selected returns a copy of the selected message, or nil.
func (c *Controller) Selected() *model.ContactMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedID == "" {
		return nil
	}
	if i := c.indexOf(c.selectedID); i >= 0 {
		return c.messages[i].Clone()
	}
	return nil
}

// View returns the collection filtered and sorted by p.
func (c *Controller) View(p model.ViewParams) []*model.ContactMessage {
	return inbox.Derive(c.Messages(), p)
}

// Stats computes the inbox counters over the full collection at the
// controller's clock.
func (c *Controller) Stats() model.Stats {
	return inbox.ComputeStats(c.Messages(), c.now())
}

// Export writes the full collection as CSV.
func (c *Controller) Export(w io.Writer) error {
	return export.WriteCSV(w, c.Messages())
}
