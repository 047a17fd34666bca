// Package page serves the server-rendered register page.
//
// GET / renders the current view. Every form posts to a small handler that
// calls the editor and redirects back to / with 303 See Other, so a reload
// never resubmits. Failures are not returned to the browser directly; the
// editor keeps the message and the next render shows it.
package page

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// Editor is the part of editor.Controller the page drives.
type Editor interface {
	SubmitForm(ctx context.Context, in validate.Input) (editor.Change, error)
	RequestEdit(index int) (types.Student, error)
	RequestDelete(ctx context.Context, index int) (types.Student, error)
	CancelEdit()
	View() editor.View
}

// Register mounts the page routes on r.
func Register(r chi.Router, ed Editor) {
	r.Get("/", Index(ed))
	r.Post("/submit", Submit(ed))
	r.Post("/edit/{index}", Edit(ed))
	r.Post("/delete/{index}", Delete(ed))
	r.Post("/cancel", Cancel(ed))
}

// Index renders the page.
func Index(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(Page(ed.View())).ServeHTTP(w, r)
	}
}

// Submit reads the four form fields and submits them.
func Submit(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		in := validate.Input{
			Name:      r.PostFormValue(validate.FieldName),
			StudentID: r.PostFormValue(validate.FieldStudentID),
			Email:     r.PostFormValue(validate.FieldEmail),
			Contact:   r.PostFormValue(validate.FieldContact),
		}
		if _, err := ed.SubmitForm(r.Context(), in); err != nil {
			slog.Debug("page submit failed", slog.String("error", err.Error()))
		}
		back(w, r)
	}
}

// Edit switches the form to the row at {index}.
func Edit(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		if _, err := ed.RequestEdit(index); err != nil {
			slog.Debug("page edit failed", slog.Int("index", index), slog.String("error", err.Error()))
		}
		back(w, r)
	}
}

// Delete removes the row at {index}.
func Delete(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}
		if _, err := ed.RequestDelete(r.Context(), index); err != nil {
			slog.Debug("page delete failed", slog.Int("index", index), slog.String("error", err.Error()))
		}
		back(w, r)
	}
}

// Cancel abandons an edit in progress.
func Cancel(ed Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed.CancelEdit()
		back(w, r)
	}
}

func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
