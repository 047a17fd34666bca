// Package types holds the shared data structures used across the
// application, so validate, records, editor and the HTTP adapters can all
// import them without depending on each other.
package types

import "github.com/google/uuid"

// Student is one validated student record.
//
// Struct tags serve two purposes:
//
//  1. json:"..." are the persisted and wire field names. The field order
//     here is the order written to the backing store:
//     name, studentId, email, contact, id.
//
//  2. validate:"..." are rules checked by go-playground/validator. The
//     custom tags (letters_spaces, digits, ...) are registered by the
//     validate package.
//
// ID is a stable synthetic identifier assigned by the record store; it is
// never entered by the user and is not validated.
type Student struct {
	Name      string    `json:"name"      validate:"required,letters_spaces"`
	StudentID string    `json:"studentId" validate:"required,digits"`
	Email     string    `json:"email"     validate:"required,basic_email"`
	Contact   string    `json:"contact"   validate:"required,contact_number"`
	ID        uuid.UUID `json:"id"`
}

// SameFields reports whether s and o carry identical user-entered values.
// ID is ignored.
func (s Student) SameFields(o Student) bool {
	return s.Name == o.Name &&
		s.StudentID == o.StudentID &&
		s.Email == o.Email &&
		s.Contact == o.Contact
}
