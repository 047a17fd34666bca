package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/records"
	"github.com/aanand-mishra/student-register/internal/storage/memory"
	"github.com/aanand-mishra/student-register/internal/utils/response"
	"github.com/aanand-mishra/student-register/internal/validate"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type brokenPut struct {
	*memory.Memory
}

func (brokenPut) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func newServer(t *testing.T) (http.Handler, *editor.Controller) {
	t.Helper()
	return newServerWith(t, records.New(memory.New(), records.WithLogger(quiet)))
}

func newServerWith(t *testing.T, store *records.Store) (http.Handler, *editor.Controller) {
	t.Helper()
	ctrl := editor.New(store, editor.WithLogger(quiet))
	_, err := ctrl.RequestInitialLoad(context.Background())
	require.NoError(t, err)

	r := chi.NewRouter()
	Register(r, ctrl)
	return r, ctrl
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const alice = `{"name":"Alice Smith","studentId":"1001","email":"a@s.com","contact":"1234567890"}`
const bob = `{"name":"Bob","studentId":"1002","email":"b@s.com","contact":"0987654321"}`

func TestGetList_Empty(t *testing.T) {
	h, _ := newServer(t)

	rec := do(t, h, http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSubmit_CreateThenList(t *testing.T) {
	h, _ := newServer(t)

	rec := do(t, h, http.MethodPost, "/api/students", alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[Item](t, rec)
	assert.Equal(t, 0, created.Index)
	assert.Equal(t, "Alice Smith", created.Name)
	assert.NotZero(t, created.ID)

	rec = do(t, h, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]Item](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, created, items[0])
}

func TestSubmit_BadBodies(t *testing.T) {
	h, _ := newServer(t)

	rec := do(t, h, http.MethodPost, "/api/students", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decode[response.Response](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/students", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.StatusError, decode[response.Response](t, rec).Status)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	h, ctrl := newServer(t)

	rec := do(t, h, http.MethodPost, "/api/students",
		`{"name":"Alice","studentId":"12a","email":"a@s.com","contact":"1234567890"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.Response{
		Status: response.StatusError,
		Error:  validate.MsgStudentID,
		Field:  validate.FieldStudentID,
	}, decode[response.Response](t, rec))

	assert.Empty(t, ctrl.View().Records)
}

func TestEditThenSubmit_Updates(t *testing.T) {
	h, _ := newServer(t)
	created := decode[Item](t, do(t, h, http.MethodPost, "/api/students", alice))

	rec := do(t, h, http.MethodPost, "/api/students/0/edit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[Item](t, rec))

	st := decode[EditorState](t, do(t, h, http.MethodGet, "/api/editor", ""))
	assert.Equal(t, "editing", st.Mode)
	assert.Equal(t, 0, st.Index)
	require.NotNil(t, st.RecordID)
	assert.Equal(t, created.ID, *st.RecordID)
	assert.Equal(t, "Alice Smith", st.Form.Name)

	rec = do(t, h, http.MethodPost, "/api/students",
		`{"name":"Alice Jones","studentId":"1001","email":"a@s.com","contact":"1234567890"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[Item](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Alice Jones", updated.Name)

	st = decode[EditorState](t, do(t, h, http.MethodGet, "/api/editor", ""))
	assert.Equal(t, "creating", st.Mode)
	assert.Equal(t, -1, st.Index)
	assert.Nil(t, st.RecordID)
}

func TestCancel(t *testing.T) {
	h, ctrl := newServer(t)
	do(t, h, http.MethodPost, "/api/students", alice)
	do(t, h, http.MethodPost, "/api/students/0/edit", "")

	rec := do(t, h, http.MethodDelete, "/api/editor", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, editor.CreatingState(), ctrl.State())
}

func TestDelete(t *testing.T) {
	h, _ := newServer(t)
	a := decode[Item](t, do(t, h, http.MethodPost, "/api/students", alice))
	do(t, h, http.MethodPost, "/api/students", bob)

	rec := do(t, h, http.MethodDelete, "/api/students/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	del := decode[Deleted](t, rec)
	assert.Equal(t, Deleted{Status: "deleted", Index: 0, ID: a.ID}, del)

	items := decode[[]Item](t, do(t, h, http.MethodGet, "/api/students", ""))
	require.Len(t, items, 1)
	assert.Equal(t, "Bob", items[0].Name)
	assert.Equal(t, 0, items[0].Index)
}

func TestIndexErrors(t *testing.T) {
	h, _ := newServer(t)
	do(t, h, http.MethodPost, "/api/students", alice)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		msg    string
	}{
		{"edit out of range", http.MethodPost, "/api/students/5/edit", http.StatusNotFound, editor.MsgMissingRecord},
		{"delete out of range", http.MethodDelete, "/api/students/1", http.StatusNotFound, editor.MsgMissingRecord},
		{"delete negative", http.MethodDelete, "/api/students/-1", http.StatusNotFound, editor.MsgMissingRecord},
		{"edit not a number", http.MethodPost, "/api/students/x/edit", http.StatusBadRequest, "invalid index: must be an integer"},
		{"delete not a number", http.MethodDelete, "/api/students/one", http.StatusBadRequest, "invalid index: must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decode[response.Response](t, rec).Error)
		})
	}

	items := decode[[]Item](t, do(t, h, http.MethodGet, "/api/students", ""))
	assert.Len(t, items, 1)
}

func TestSubmit_PersistenceFailure(t *testing.T) {
	store := records.New(brokenPut{memory.New()}, records.WithLogger(quiet))
	h, ctrl := newServerWith(t, store)

	rec := do(t, h, http.MethodPost, "/api/students", alice)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Changes could not be saved: disk full", decode[response.Response](t, rec).Error)

	// The record stays in memory.
	assert.Len(t, ctrl.View().Records, 1)
}

func TestLoad(t *testing.T) {
	backend := memory.New()
	require.NoError(t, backend.Put(context.Background(), records.DefaultKey, []byte(
		`[{"name":"Alice","studentId":"1","email":"a@s.com","contact":"1234567890"},
		  {"name":"B0b","studentId":"2","email":"b@s.com","contact":"1234567890"}]`)))

	h, _ := newServerWith(t, records.New(backend, records.WithLogger(quiet)))

	rec := do(t, h, http.MethodPost, "/api/students/load", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LoadResult{Count: 1, Dropped: 1, Assigned: 1}, decode[LoadResult](t, rec))

	st := decode[EditorState](t, do(t, h, http.MethodGet, "/api/editor", ""))
	assert.Equal(t, "1 saved record(s) were invalid and have been skipped.", st.Error)
}

func TestLoad_Undecodable(t *testing.T) {
	backend := memory.New()
	require.NoError(t, backend.Put(context.Background(), records.DefaultKey, []byte(`not json`)))

	store := records.New(backend, records.WithLogger(quiet))
	ctrl := editor.New(store, editor.WithLogger(quiet))
	r := chi.NewRouter()
	Register(r, ctrl)

	rec := do(t, r, http.MethodPost, "/api/students/load", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decode[response.Response](t, rec).Error, "Saved records could not be loaded: "))
}

// laggingView reports an error left behind by some other request.
type laggingView struct {
	*editor.Controller
}

func (l laggingView) View() editor.View {
	v := l.Controller.View()
	v.Error = "Changes could not be saved: stale"
	return v
}

func TestErrorBody_FollowsTheFailedCall(t *testing.T) {
	store := records.New(brokenPut{memory.New()}, records.WithLogger(quiet))
	ctrl := editor.New(store, editor.WithLogger(quiet))
	r := chi.NewRouter()
	Register(r, laggingView{ctrl})

	rec := do(t, r, http.MethodDelete, "/api/students/3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, editor.MsgMissingRecord, decode[response.Response](t, rec).Error)

	rec = do(t, r, http.MethodPost, "/api/students", alice)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Changes could not be saved: disk full", decode[response.Response](t, rec).Error)
}
