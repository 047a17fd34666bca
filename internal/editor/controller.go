// Package editor implements the add/update/delete workflow over the record
// store: the editor state machine, the current form values, the single
// error message shown to the user, and change notifications.
//
// A Controller is the one owner of the record list. Every boundary
// operation takes its lock and runs to completion before the next one
// starts, so presentation adapters may call it from concurrent goroutines.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aanand-mishra/student-register/internal/records"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// Messages shown for non-validation failures.
const (
	MsgMissingRecord = "Selected record no longer exists."
	MsgDuplicateID   = "Student ID already exists."
	msgSaveFailed    = "Changes could not be saved: "
	msgLoadFailed    = "Saved records could not be loaded: "
)

// Op names a data change.
type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is delivered to OnChange listeners after every mutation, whether
// or not it was persisted successfully.
type Change struct {
	Op     Op            `json:"op"`
	Index  int           `json:"index"`
	Record types.Student `json:"record"`
	Count  int           `json:"count"`
}

// View is everything an adapter needs to render.
type View struct {
	Records []types.Student `json:"records"`
	Error   string          `json:"error"`
	State   State           `json:"state"`
	Form    validate.Input  `json:"form"`
}

// Controller owns the record store and the editor state.
type Controller struct {
	mu        sync.Mutex
	store     *records.Store
	validator *validate.Validator
	log       *slog.Logger
	uniqueIDs bool

	state     State
	form      validate.Input
	errMsg    string
	listeners []func(Change)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithValidator sets the validator used for submissions.
func WithValidator(v *validate.Validator) Option {
	return func(c *Controller) { c.validator = v }
}

// WithUniqueStudentIDs rejects a submission whose student ID is already
// used by another record.
func WithUniqueStudentIDs(enabled bool) Option {
	return func(c *Controller) { c.uniqueIDs = enabled }
}

// New returns a Controller in the Creating state. The store is not loaded;
// call RequestInitialLoad.
func New(store *records.Store, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		log:   slog.Default(),
		state: CreatingState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		c.validator = validate.New()
	}
	return c
}

// OnChange registers fn to be called after every mutation. Listeners run
// on the caller's goroutine after the lock is released and must not block.
func (c *Controller) OnChange(fn func(Change)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// run executes fn under the lock and then notifies listeners of the change
// it reports, if any.
func (c *Controller) run(fn func() (*Change, error)) error {
	c.mu.Lock()
	change, err := fn()
	listeners := append([]func(Change){}, c.listeners...)
	c.mu.Unlock()

	if change != nil {
		for _, l := range listeners {
			l(*change)
		}
	}
	return err
}

// RequestInitialLoad replaces the in-memory list with the persisted one and
// resets the editor to Creating with an empty form.
func (c *Controller) RequestInitialLoad(ctx context.Context) (records.LoadReport, error) {
	var report records.LoadReport
	err := c.run(func() (*Change, error) {
		c.state = CreatingState()
		c.form = validate.Input{}
		c.errMsg = ""

		var err error
		report, err = c.store.Load(ctx)
		change := &Change{Op: OpLoad, Index: -1, Count: c.store.Len()}
		if err != nil {
			c.errMsg = Message(err)
			c.log.Error("failed to load records",
				slog.String("key", c.store.Key()),
				slog.String("error", err.Error()))
			return change, err
		}

		if n := len(report.Dropped); n > 0 {
			c.errMsg = fmt.Sprintf("%d saved record(s) were invalid and have been skipped.", n)
		}
		c.log.Info("records loaded",
			slog.Int("count", report.Loaded),
			slog.Int("dropped", len(report.Dropped)),
			slog.Int("ids_assigned", report.Assigned))
		return change, nil
	})
	return report, err
}

// SubmitForm validates in and, on success, appends it (Creating) or
// replaces the edited record (EditingAt) and returns to Creating.
//
// On a validation failure the message is set, the form keeps in, and
// nothing else changes. On a persistence failure the in-memory change is
// kept and the error is reported.
//
// The returned Change describes the mutation; it is zero when nothing
// changed.
func (c *Controller) SubmitForm(ctx context.Context, in validate.Input) (Change, error) {
	var result Change
	err := c.run(func() (*Change, error) {
		c.errMsg = ""

		rec, err := c.validator.Form(in)
		if err != nil {
			return nil, c.rejectInput(in, err)
		}

		if err := c.reloadIfFailed(ctx); err != nil {
			c.form = in
			return nil, err
		}

		except := -1
		if idx, ok := c.state.EditingAt(); ok {
			except = idx
		}
		if c.uniqueIDs && c.store.ContainsStudentID(rec.StudentID, except) {
			return nil, c.rejectInput(in, &validate.Error{Field: validate.FieldStudentID, Message: MsgDuplicateID})
		}

		var change *Change
		if idx, ok := c.state.EditingAt(); ok {
			saved, err := c.store.ReplaceAt(idx, rec)
			if err != nil {
				c.state = CreatingState()
				c.form = in
				return nil, c.missing("update", idx, err)
			}
			change = &Change{Op: OpUpdate, Index: idx, Record: saved}
			c.log.Info("student updated", slog.Int("index", idx), slog.String("id", saved.ID.String()))
		} else {
			saved := c.store.Append(rec)
			change = &Change{Op: OpCreate, Index: c.store.Len() - 1, Record: saved}
			c.log.Info("student created", slog.Int("index", change.Index), slog.String("id", saved.ID.String()))
		}
		change.Count = c.store.Len()
		result = *change

		c.state = CreatingState()
		c.form = validate.Input{}
		return change, c.persist(ctx)
	})
	return result, err
}

// RequestEdit pre-fills the form from the record at index and switches to
// EditingAt(index).
func (c *Controller) RequestEdit(index int) (types.Student, error) {
	var rec types.Student
	err := c.run(func() (*Change, error) {
		var err error
		rec, err = c.store.At(index)
		if err != nil {
			return nil, c.missing("edit", index, err)
		}
		c.state = EditingAt(index, rec.ID)
		c.form = validate.FromStudent(rec)
		return nil, nil
	})
	return rec, err
}

// RequestDelete removes the record at index and persists.
//
// The editor state follows the edited record by id: deleting it returns to
// Creating and clears the form, deleting a row above it moves the edit
// position down by one, anything else leaves the state alone.
func (c *Controller) RequestDelete(ctx context.Context, index int) (types.Student, error) {
	var removed types.Student
	err := c.run(func() (*Change, error) {
		var err error
		removed, err = c.store.DeleteAt(index)
		if err != nil {
			return nil, c.missing("delete", index, err)
		}
		c.log.Info("student deleted", slog.Int("index", index), slog.String("id", removed.ID.String()))

		if _, ok := c.state.EditingAt(); ok {
			if pos := c.store.IndexOf(c.state.RecordID); pos >= 0 {
				c.state.Index = pos
			} else {
				c.state = CreatingState()
				c.form = validate.Input{}
			}
		}

		change := &Change{Op: OpDelete, Index: index, Record: removed, Count: c.store.Len()}
		return change, c.persist(ctx)
	})
	return removed, err
}

// CancelEdit returns to Creating and clears the form.
func (c *Controller) CancelEdit() {
	_ = c.run(func() (*Change, error) {
		c.state = CreatingState()
		c.form = validate.Input{}
		return nil, nil
	})
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Records: c.store.Records(),
		Error:   c.errMsg,
		State:   c.state,
		Form:    c.form,
	}
}

// State returns the current editor state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// reloadIfFailed retries a failed load before anything is written, so a
// write never replaces persisted records that were never read.
func (c *Controller) reloadIfFailed(ctx context.Context) error {
	if !c.store.LoadFailed() {
		return nil
	}
	report, err := c.store.Load(ctx)
	if err != nil {
		c.errMsg = Message(err)
		c.log.Error("records still unavailable, change rejected",
			slog.String("key", c.store.Key()),
			slog.String("error", err.Error()))
		return err
	}
	c.log.Info("records loaded on retry",
		slog.Int("count", report.Loaded),
		slog.Int("dropped", len(report.Dropped)))
	return nil
}

func (c *Controller) rejectInput(in validate.Input, err error) error {
	c.errMsg = Message(err)
	c.form = in
	c.log.Debug("submission rejected", slog.String("error", err.Error()))
	return err
}

func (c *Controller) missing(op string, index int, err error) error {
	c.errMsg = Message(err)
	c.log.Warn("record index out of range",
		slog.String("op", op),
		slog.Int("index", index),
		slog.String("error", err.Error()))
	return err
}

func (c *Controller) persist(ctx context.Context) error {
	if err := c.store.Persist(ctx); err != nil {
		c.errMsg = Message(err)
		c.log.Error("failed to persist records",
			slog.String("key", c.store.Key()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Message returns the text the editor shows for err. Adapters use it to
// report a failure without reading the shared view.
func Message(err error) string {
	if verr, ok := validate.AsError(err); ok {
		return verr.Message
	}

	var ie *records.IndexError
	if errors.As(err, &ie) {
		return MsgMissingRecord
	}

	var pe *records.PersistenceError
	if errors.As(err, &pe) {
		cause := pe.Error()
		if pe.Err != nil {
			cause = pe.Err.Error()
		}
		if pe.Op == "load" {
			return msgLoadFailed + cause
		}
		return msgSaveFailed + cause
	}

	return err.Error()
}
