package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-register/internal/storage"
)

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

type fakeDB struct {
	row      fakeRow
	execErr  error
	execSQL  string
	execArgs []any
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return f.row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func TestStore_GetNotFound(t *testing.T) {
	s := NewWithAPI(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := s.Get(context.Background(), "studentsData")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GetValue(t *testing.T) {
	s := NewWithAPI(&fakeDB{row: fakeRow{value: []byte(`[]`)}})
	got, err := s.Get(context.Background(), "studentsData")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestStore_GetError(t *testing.T) {
	s := NewWithAPI(&fakeDB{row: fakeRow{err: errors.New("conn reset")}})
	_, err := s.Get(context.Background(), "studentsData")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Put(t *testing.T) {
	db := &fakeDB{}
	s := NewWithAPI(db)

	require.NoError(t, s.Put(context.Background(), "studentsData", []byte(`[]`)))
	assert.Contains(t, db.execSQL, "ON CONFLICT (key)")
	assert.Equal(t, []any{"studentsData", []byte(`[]`)}, db.execArgs)

	db.execErr = errors.New("read-only transaction")
	err := s.Put(context.Background(), "studentsData", []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	assert.NoError(t, s.Close())
}

func TestMigrations_Embedded(t *testing.T) {
	data, err := migrations.ReadFile("migrations/00001_create_kv.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS kv")
}
