package page

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// scrollThreshold is the row count above which the table is capped at
// 250px and scrolls.
const scrollThreshold = 5

const (
	labelAdd    = "Add Student"
	labelUpdate = "Update Student"
)

const styles = `body{font-family:sans-serif;margin:2rem;}
form.student{display:grid;gap:.5rem;max-width:24rem;}
.error{color:#b00020;min-height:1.2em;}
table{border-collapse:collapse;width:100%;}
th,td{border:1px solid #ccc;padding:.4rem;text-align:left;}
.scroll{max-height:250px;overflow-y:auto;}
td form{display:inline;}`

// htmlWriter writes raw markup and escaped text, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Page is the full register page for view.
func Page(view editor.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<title>Student Registration</title><style>`)
		h.raw(styles)
		h.raw(`</style></head><body><h1>Student Registration</h1>`)
		h.component(ctx, Form(view.Form, view.State))
		h.component(ctx, ErrorMessage(view.Error))
		h.component(ctx, Table(view.Records))
		h.raw(`</body></html>`)
		return h.err
	})
}

// Form is the student form, prefilled with in. While editing, the submit
// button reads "Update Student" and a cancel button is shown.
func Form(in validate.Input, state editor.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<form class="student" method="post" action="/submit">`)
		input(h, validate.FieldName, "Student Name", "text", in.Name)
		input(h, validate.FieldStudentID, "Student ID", "text", in.StudentID)
		input(h, validate.FieldEmail, "Email", "email", in.Email)
		input(h, validate.FieldContact, "Contact Number", "tel", in.Contact)

		label := labelAdd
		if _, editing := state.EditingAt(); editing {
			label = labelUpdate
		}
		h.raw(`<button type="submit" id="submit">`)
		h.text(label)
		h.raw(`</button></form>`)

		if _, editing := state.EditingAt(); editing {
			h.raw(`<form method="post" action="/cancel"><button type="submit" id="cancel">Cancel</button></form>`)
		}
		return h.err
	})
}

func input(h *htmlWriter, name, label, kind, value string) {
	h.raw(fmt.Sprintf(`<label for="%s">`, name))
	h.text(label)
	h.raw(fmt.Sprintf(`</label><input id="%s" name="%s" type="%s" value="`, name, name, kind))
	h.text(value)
	h.raw(`">`)
}

// ErrorMessage is the single message area. It is always present so the
// layout does not jump.
func ErrorMessage(msg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<p class="error" id="error" role="alert">`)
		h.text(msg)
		h.raw(`</p>`)
		return h.err
	})
}

// Table lists the records with Edit and Delete buttons per row.
func Table(recs []types.Student) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if len(recs) > scrollThreshold {
			h.raw(`<div id="records" class="scroll">`)
		} else {
			h.raw(`<div id="records">`)
		}
		h.raw(`<table><thead><tr><th>Student Name</th><th>Student ID</th><th>Email</th><th>Contact Number</th><th></th></tr></thead><tbody>`)
		for i, rec := range recs {
			idx := strconv.Itoa(i)
			h.raw(`<tr data-id="`)
			h.text(rec.ID.String())
			h.raw(`"><td>`)
			h.text(rec.Name)
			h.raw(`</td><td>`)
			h.text(rec.StudentID)
			h.raw(`</td><td>`)
			h.text(rec.Email)
			h.raw(`</td><td>`)
			h.text(rec.Contact)
			h.raw(`</td><td>`)
			h.raw(`<form method="post" action="/edit/` + idx + `"><button type="submit">Edit</button></form>`)
			h.raw(`<form method="post" action="/delete/` + idx + `"><button type="submit">Delete</button></form>`)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></div>`)
		return h.err
	})
}
