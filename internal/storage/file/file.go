// Package file stores each key as a JSON file in a directory.
//
// Writes go through renameio: the value is written to a pending file in the
// same directory and renamed over the destination on success. Readers see
// either the old or the new content, never a truncated value.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/tidwall/pretty"

	"github.com/aanand-mishra/student-register/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("file: invalid key")

// Store is a directory of <key>.json files.
type Store struct {
	dir    string
	pretty bool
}

// Option configures a Store.
type Option func(*Store)

// WithPretty makes Put indent JSON values for human readers.
func WithPretty(enabled bool) Option {
	return func(s *Store) { s.pretty = enabled }
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file.New: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file.New: create dir: %w", err)
	}

	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the file that holds key.
func (s *Store) Path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`+"\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("Get: read: %w", err)
	}
	return data, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	if s.pretty {
		value = pretty.Pretty(value)
	}

	f, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(s.dir),
		renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("Put: create: %w", err)
	}
	// no-op once the file has been renamed into place
	defer f.Cleanup()

	if _, err := f.Write(value); err != nil {
		return fmt.Errorf("Put: write: %w", err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("Put: replace: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
