package editor

import (
	"fmt"

	"github.com/google/uuid"
)

// Mode is what the next form submission does.
type Mode int

const (
	// Creating: a submit appends a new record.
	Creating Mode = iota
	// Editing: a submit replaces the record at State.Index.
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText lets Mode appear as a string in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is either Creating or EditingAt(Index). RecordID is the edited
// record's stable id and is used to keep Index pointing at the same record
// when rows above it are deleted.
type State struct {
	Mode     Mode      `json:"mode"`
	Index    int       `json:"index"`
	RecordID uuid.UUID `json:"recordId"`
}

// CreatingState is the initial state.
func CreatingState() State {
	return State{Mode: Creating, Index: -1}
}

// EditingAt returns the state targeting the record at index.
func EditingAt(index int, id uuid.UUID) State {
	return State{Mode: Editing, Index: index, RecordID: id}
}

// EditingAt reports the edited position, if any.
func (s State) EditingAt() (int, bool) {
	if s.Mode != Editing {
		return -1, false
	}
	return s.Index, true
}

func (s State) String() string {
	if s.Mode == Editing {
		return fmt.Sprintf("EditingAt(%d)", s.Index)
	}
	return "Creating"
}
