package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-register/internal/storage"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "studentsData")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "studentsData", []byte(`[{"name":"A"}]`)))
	got, err := s.Get(ctx, "studentsData")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"A"}]`, string(got))

	require.NoError(t, s.Put(ctx, "studentsData", []byte(`[]`)))
	got, err = s.Get(ctx, "studentsData")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(context.Background(), "studentsData", []byte(`[]`)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "studentsData.json", entries[0].Name())
}

func TestStore_FailedPutCleansUp(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	// A directory in the way makes the final rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "studentsData.json"), 0o755))

	assert.Error(t, s.Put(context.Background(), "studentsData", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}

func TestStore_Pretty(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, WithPretty(true))
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "studentsData", []byte(`{"name":"A"}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "studentsData.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n")
	assert.Contains(t, string(raw), `"name": "A"`)
}

func TestStore_InvalidKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		_, err := s.Get(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
		assert.ErrorIs(t, s.Put(context.Background(), key, nil), ErrInvalidKey, "key %q", key)
	}
}

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
