// Package student contains the JSON handlers for the student register.
//
// Every handler is built by a factory that closes over the Editor, so the
// router only ever sees plain http.HandlerFuncs:
//
//	r.Get("/api/students", student.GetList(ctrl))
//
// Records are addressed by their position in the list. The stable id is
// returned alongside so clients can check they are touching the row they
// think they are.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/records"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/utils/response"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// Editor is the part of editor.Controller the handlers drive.
type Editor interface {
	RequestInitialLoad(ctx context.Context) (records.LoadReport, error)
	SubmitForm(ctx context.Context, in validate.Input) (editor.Change, error)
	RequestEdit(index int) (types.Student, error)
	RequestDelete(ctx context.Context, index int) (types.Student, error)
	CancelEdit()
	View() editor.View
}

// Item is one row of the list, a student plus its current position.
type Item struct {
	Index int `json:"index"`
	types.Student
}

// LoadResult is the body of a successful reload.
type LoadResult struct {
	Count    int `json:"count"`
	Dropped  int `json:"dropped"`
	Assigned int `json:"assigned"`
}

// Deleted is the body of a successful delete.
type Deleted struct {
	Status string    `json:"status"`
	Index  int       `json:"index"`
	ID     uuid.UUID `json:"id"`
}

// EditorState is the body of GET /api/editor.
type EditorState struct {
	Mode     string         `json:"mode"`
	Index    int            `json:"index"`
	RecordID *uuid.UUID     `json:"recordId,omitempty"`
	Error    string         `json:"error"`
	Form     validate.Input `json:"form"`
}

// Register mounts the JSON routes on r.
func Register(r chi.Router, ed Editor) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/students", GetList(ed))
		r.Post("/students", Submit(ed))
		r.Post("/students/load", Load(ed))
		r.Post("/students/{index}/edit", Edit(ed))
		r.Delete("/students/{index}", Delete(ed))
		r.Get("/editor", GetState(ed))
		r.Delete("/editor", Cancel(ed))
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
//
//	[ { "index": 0, "name": "Alice", "studentId": "1", "email": "a@b.co",
//	    "contact": "0123456789", "id": "…" } ]
//
// An empty register is [] rather than null.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := ed.View()

		items := make([]Item, 0, len(view.Records))
		for i, rec := range view.Records {
			items = append(items, Item{Index: i, Student: rec})
		}
		response.WriteJSON(w, http.StatusOK, items)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit handles POST /api/students
//
// The body is the raw form: { "name", "studentId", "email", "contact" }.
// In creating mode the student is appended (201 Created); while an edit is
// in progress the edited row is replaced (200 OK). Both return the Item.
//
//	400  empty or malformed body, or a validation failure
//	404  the edited row disappeared
//	500  the change was applied but could not be saved
//
// ─────────────────────────────────────────────────────────────────────────────
func Submit(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validate.Input
		err := json.NewDecoder(r.Body).Decode(&in)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		change, err := ed.SubmitForm(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}

		status := http.StatusOK
		if change.Op == editor.OpCreate {
			status = http.StatusCreated
		}
		response.WriteJSON(w, status, Item{Index: change.Index, Student: change.Record})
	}
}

// Load handles POST /api/students/load and re-reads the backing store.
func Load(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := ed.RequestInitialLoad(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, LoadResult{
			Count:    report.Loaded,
			Dropped:  len(report.Dropped),
			Assigned: report.Assigned,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Edit handles POST /api/students/{index}/edit
//
// Switches the editor to the row at index and returns its values, which
// are also the form prefill. The next Submit replaces that row.
// ─────────────────────────────────────────────────────────────────────────────
func Edit(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}

		rec, err := ed.RequestEdit(index)
		if err != nil {
			writeError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, Item{Index: index, Student: rec})
	}
}

// Delete handles DELETE /api/students/{index}
func Delete(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}

		removed, err := ed.RequestDelete(r.Context(), index)
		if err != nil {
			writeError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, Deleted{Status: "deleted", Index: index, ID: removed.ID})
	}
}

// GetState handles GET /api/editor: mode, edited index (-1 when creating),
// the current error message and the form values.
func GetState(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, stateOf(ed.View()))
	}
}

// Cancel handles DELETE /api/editor and abandons an edit in progress.
func Cancel(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed.CancelEdit()
		response.WriteJSON(w, http.StatusOK, response.OK())
	}
}

func stateOf(view editor.View) EditorState {
	st := EditorState{
		Mode:  view.State.Mode.String(),
		Index: -1,
		Error: view.Error,
		Form:  view.Form,
	}
	if idx, ok := view.State.EditingAt(); ok {
		id := view.State.RecordID
		st.Index = idx
		st.RecordID = &id
	}
	return st
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		slog.Debug("bad index parameter", slog.String("index", raw))
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid index: must be an integer")))
		return 0, false
	}
	return index, true
}

// writeError maps the three core error kinds onto status codes. The body
// carries the message the editor shows for err.
func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validate.AsError(err); ok {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verr))
		return
	}

	msg := editor.Message(err)
	switch {
	case records.IsIndexError(err):
		response.WriteJSON(w, http.StatusNotFound, response.Message(msg))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Message(msg))
	}
}
