// Package records holds the ordered list of student records and keeps it
// synchronised with a backing key-value store.
//
// The whole list is stored as one JSON array under a single key; every
// Persist fully overwrites it. Positions are the index into the list.
// Each record also carries a stable ID so callers can follow a record
// across deletions that shift positions.
//
// A Store is not safe for concurrent use; the editor controller owns it
// and serialises access.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-register/internal/storage"
	"github.com/aanand-mishra/student-register/internal/types"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// DefaultKey is the key the list is stored under.
const DefaultKey = "studentsData"

// ErrNotLoaded is the cause of a Persist refused because the last Load
// failed. Writing then would replace records that were never read.
var ErrNotLoaded = errors.New("saved records were not loaded")

// wireRecord is the persisted shape. ID is a string so that data written
// without ids (or with a damaged id) still decodes.
type wireRecord struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	ID        string `json:"id,omitempty"`
}

// Dropped describes a persisted entry that failed validation on load.
type Dropped struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// LoadReport summarises a Load.
type LoadReport struct {
	Found    bool      `json:"found"`
	Loaded   int       `json:"loaded"`
	Assigned int       `json:"assigned"` // records that had no usable id
	Dropped  []Dropped `json:"dropped,omitempty"`
}

// Store is the in-memory record sequence plus its backing store.
type Store struct {
	backend   storage.Storage
	key       string
	validator *validate.Validator
	log       *slog.Logger
	newID     func() uuid.UUID

	records []types.Student
	loadErr error // set while the last Load failed
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used to report dropped records.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithValidator sets the validator used on load.
func WithValidator(v *validate.Validator) Option {
	return func(s *Store) { s.validator = v }
}

// New returns an empty Store over backend. Call Load to read persisted data.
func New(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		log:     slog.Default(),
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validate.New()
	}
	return s
}

// Key returns the backing store key.
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory sequence with the persisted one.
//
// A missing key yields an empty sequence. Every decoded entry is
// re-validated; entries that fail are dropped and listed in the report.
// Entries without a valid id are given a fresh one, which is written back
// on the next Persist.
//
// If the value cannot be read or decoded, the sequence is left empty, a
// *PersistenceError is returned, and Persist is refused until a later Load
// succeeds.
func (s *Store) Load(ctx context.Context) (LoadReport, error) {
	s.records = nil

	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.loadErr = nil
			return LoadReport{}, nil
		}
		return LoadReport{}, s.failLoad(err)
	}

	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return LoadReport{Found: true}, s.failLoad(fmt.Errorf("decode: %w", err))
	}
	s.loadErr = nil

	report := LoadReport{Found: true}
	loaded := make([]types.Student, 0, len(wire))
	seen := make(map[uuid.UUID]bool, len(wire))

	for i, w := range wire {
		rec := types.Student{
			Name:      w.Name,
			StudentID: w.StudentID,
			Email:     w.Email,
			Contact:   w.Contact,
		}

		if err := s.validator.Record(rec); err != nil {
			report.Dropped = append(report.Dropped, Dropped{Position: i, Reason: err.Error()})
			s.log.Warn("dropping invalid persisted record",
				slog.String("key", s.key),
				slog.Int("position", i),
				slog.String("error", err.Error()))
			continue
		}

		id, err := uuid.Parse(w.ID)
		if err != nil || id == uuid.Nil || seen[id] {
			id = s.newID()
			report.Assigned++
		}
		seen[id] = true
		rec.ID = id

		loaded = append(loaded, rec)
	}

	s.records = loaded
	report.Loaded = len(loaded)
	return report, nil
}

func (s *Store) failLoad(err error) error {
	s.loadErr = err
	return &PersistenceError{Op: "load", Key: s.key, Err: err}
}

// LoadFailed reports whether the last Load failed. While it did, the
// in-memory sequence does not reflect the backing store.
func (s *Store) LoadFailed() bool {
	return s.loadErr != nil
}

// Persist writes the full sequence under the key, replacing what was there.
// It is refused with ErrNotLoaded while LoadFailed.
func (s *Store) Persist(ctx context.Context) error {
	if s.loadErr != nil {
		return &PersistenceError{
			Op:  "persist",
			Key: s.key,
			Err: fmt.Errorf("%w: %v", ErrNotLoaded, s.loadErr),
		}
	}

	wire := make([]wireRecord, len(s.records))
	for i, r := range s.records {
		wire[i] = wireRecord{
			Name:      r.Name,
			StudentID: r.StudentID,
			Email:     r.Email,
			Contact:   r.Contact,
			ID:        r.ID.String(),
		}
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return &PersistenceError{Op: "persist", Key: s.key, Err: fmt.Errorf("encode: %w", err)}
	}

	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return &PersistenceError{Op: "persist", Key: s.key, Err: err}
	}
	return nil
}

// Append adds rec at the end and returns it with its assigned ID.
// A non-zero rec.ID is kept.
func (s *Store) Append(rec types.Student) types.Student {
	if rec.ID == uuid.Nil {
		rec.ID = s.newID()
	}
	s.records = append(s.records, rec)
	return rec
}

// ReplaceAt overwrites the fields of the record at index. The record keeps
// its ID.
func (s *Store) ReplaceAt(index int, rec types.Student) (types.Student, error) {
	if err := s.check(index); err != nil {
		return types.Student{}, err
	}
	rec.ID = s.records[index].ID
	s.records[index] = rec
	return rec, nil
}

// DeleteAt removes the record at index, shifting later records down by one,
// and returns the removed record.
func (s *Store) DeleteAt(index int) (types.Student, error) {
	if err := s.check(index); err != nil {
		return types.Student{}, err
	}
	removed := s.records[index]
	s.records = append(s.records[:index], s.records[index+1:]...)
	return removed, nil
}

// At returns the record at index.
func (s *Store) At(index int) (types.Student, error) {
	if err := s.check(index); err != nil {
		return types.Student{}, err
	}
	return s.records[index], nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a copy of the sequence.
func (s *Store) Records() []types.Student {
	out := make([]types.Student, len(s.records))
	copy(out, s.records)
	return out
}

// IndexOf returns the position of the record with id, or -1.
func (s *Store) IndexOf(id uuid.UUID) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// ContainsStudentID reports whether any record other than the one at
// except carries studentID. Pass -1 to check every record.
func (s *Store) ContainsStudentID(studentID string, except int) bool {
	for i, r := range s.records {
		if i != except && r.StudentID == studentID {
			return true
		}
	}
	return false
}

func (s *Store) check(index int) error {
	if index < 0 || index >= len(s.records) {
		return &IndexError{Index: index, Len: len(s.records)}
	}
	return nil
}
