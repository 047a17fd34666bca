package page

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/records"
	"github.com/aanand-mishra/student-register/internal/storage/memory"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/validate"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(t *testing.T) (http.Handler, *editor.Controller) {
	t.Helper()
	store := records.New(memory.New(), records.WithLogger(quiet))
	ctrl := editor.New(store, editor.WithLogger(quiet))
	_, err := ctrl.RequestInitialLoad(context.Background())
	require.NoError(t, err)

	r := chi.NewRouter()
	Register(r, ctrl)
	return r, ctrl
}

func post(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func studentForm(name, id, email, contact string) url.Values {
	return url.Values{
		validate.FieldName:      {name},
		validate.FieldStudentID: {id},
		validate.FieldEmail:     {email},
		validate.FieldContact:   {contact},
	}
}

func TestIndex_Empty(t *testing.T) {
	h, _ := newServer(t)

	body := get(t, h)
	assert.Contains(t, body, "<title>Student Registration</title>")
	assert.Contains(t, body, `<button type="submit" id="submit">Add Student</button>`)
	assert.NotContains(t, body, `id="cancel"`)
	assert.Contains(t, body, `<div id="records">`)
}

func TestSubmit_RedirectsAndRenders(t *testing.T) {
	h, ctrl := newServer(t)

	rec := post(t, h, "/submit", studentForm("Alice Smith", "1001", "a@s.com", "1234567890"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, ctrl.View().Records, 1)

	body := get(t, h)
	assert.Contains(t, body, "<td>Alice Smith</td>")
	assert.Contains(t, body, `action="/edit/0"`)
	assert.Contains(t, body, `action="/delete/0"`)
}

func TestSubmit_ValidationMessageShownAndFormKept(t *testing.T) {
	h, ctrl := newServer(t)

	rec := post(t, h, "/submit", studentForm("Alice", "1001", "not-an-email", "1234567890"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ctrl.View().Records)

	body := get(t, h)
	assert.Contains(t, body, validate.MsgEmail)
	assert.Contains(t, body, `value="not-an-email"`)
}

func TestEdit_PrefillsAndCancels(t *testing.T) {
	h, ctrl := newServer(t)
	post(t, h, "/submit", studentForm("Alice Smith", "1001", "a@s.com", "1234567890"))

	rec := post(t, h, "/edit/0", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := get(t, h)
	assert.Contains(t, body, `value="Alice Smith"`)
	assert.Contains(t, body, "Update Student")
	assert.Contains(t, body, `id="cancel"`)

	post(t, h, "/cancel", nil)
	assert.Equal(t, editor.CreatingState(), ctrl.State())
	assert.Contains(t, get(t, h), "Add Student")
}

func TestEditSubmit_Updates(t *testing.T) {
	h, ctrl := newServer(t)
	post(t, h, "/submit", studentForm("Alice Smith", "1001", "a@s.com", "1234567890"))
	post(t, h, "/edit/0", nil)
	post(t, h, "/submit", studentForm("Alice Jones", "1001", "a@s.com", "1234567890"))

	v := ctrl.View()
	require.Len(t, v.Records, 1)
	assert.Equal(t, "Alice Jones", v.Records[0].Name)
	assert.Equal(t, editor.CreatingState(), v.State)
}

func TestDelete(t *testing.T) {
	h, ctrl := newServer(t)
	post(t, h, "/submit", studentForm("Alice Smith", "1001", "a@s.com", "1234567890"))

	rec := post(t, h, "/delete/0", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ctrl.View().Records)
}

func TestDelete_MissingRowShowsMessage(t *testing.T) {
	h, _ := newServer(t)

	rec := post(t, h, "/delete/3", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, get(t, h), editor.MsgMissingRecord)
}

func TestBadIndex(t *testing.T) {
	h, _ := newServer(t)

	assert.Equal(t, http.StatusBadRequest, post(t, h, "/edit/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/delete/abc", nil).Code)
}

func TestTable_ScrollsAboveFiveRows(t *testing.T) {
	var recs []types.Student
	for i := 0; i < scrollThreshold; i++ {
		recs = append(recs, types.Student{Name: "S" + strconv.Itoa(i)})
	}

	var sb strings.Builder
	require.NoError(t, Table(recs).Render(context.Background(), &sb))
	assert.NotContains(t, sb.String(), `class="scroll"`)

	recs = append(recs, types.Student{Name: "Sixth"})
	sb.Reset()
	require.NoError(t, Table(recs).Render(context.Background(), &sb))
	assert.Contains(t, sb.String(), `<div id="records" class="scroll">`)
}

func TestStyles_ScrollAreaIsCappedNotFixed(t *testing.T) {
	assert.Contains(t, styles, ".scroll{max-height:250px;")
	assert.NotContains(t, styles, "{height:")
	assert.NotContains(t, styles, ";height:")
}

func TestPage_EscapesValues(t *testing.T) {
	view := editor.View{
		Records: []types.Student{{Name: "<script>x</script>"}},
		Error:   `"quoted" & <b>`,
		State:   editor.CreatingState(),
		Form:    validate.Input{Email: `"><img>`},
	}

	var sb strings.Builder
	require.NoError(t, Page(view).Render(context.Background(), &sb))
	out := sb.String()

	assert.NotContains(t, out, "<script>x</script>")
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, out, "&#34;quoted&#34; &amp; &lt;b&gt;")
	assert.Contains(t, out, `value="&#34;&gt;&lt;img&gt;"`)
}
