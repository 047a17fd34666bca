// Package validate checks raw form input against the student record rules.
//
// The rules are registered as custom go-playground/validator tags so the
// same patterns back two entry points:
//
//   - Form: the ordered, short-circuiting check applied to user input.
//     Exactly one message is reported, the first rule that fails.
//   - Record: struct validation of an already-built types.Student, used
//     when re-validating data read back from the backing store.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-register/internal/types"
)

// Messages shown to the user. Exactly one is reported per submission.
const (
	MsgRequired  = "All fields are required. Empty rows are not allowed."
	MsgName      = "Student Name must contain only letters and spaces."
	MsgStudentID = "Student ID must contain only numbers."
	MsgContact   = "Contact Number must be at least 10 digits and numbers only."
	MsgEmail     = "Please enter a valid email address."
)

// Field names, matching the persisted JSON keys.
const (
	FieldName      = "name"
	FieldStudentID = "studentId"
	FieldEmail     = "email"
	FieldContact   = "contact"
)

// Custom validator tags.
const (
	tagLettersSpaces = "letters_spaces"
	tagDigits        = "digits"
	tagContact       = "contact_number"
	tagEmail         = "basic_email"
)

// space is the whitespace class used by the patterns and by trimming:
// ASCII whitespace, every Unicode space separator, the line and paragraph
// separators, and the byte order mark.
const space = `\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z` + space + `]+$`)
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
	contactPattern = regexp.MustCompile(`^[0-9]{10,}$`)
	emailPattern   = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)
)

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// Input is the four raw strings collected by a form.
type Input struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in Input) Trimmed() Input {
	return Input{
		Name:      strings.TrimFunc(in.Name, isSpace),
		StudentID: strings.TrimFunc(in.StudentID, isSpace),
		Email:     strings.TrimFunc(in.Email, isSpace),
		Contact:   strings.TrimFunc(in.Contact, isSpace),
	}
}

// FromStudent returns the form values that reproduce s.
func FromStudent(s types.Student) Input {
	return Input{
		Name:      s.Name,
		StudentID: s.StudentID,
		Email:     s.Email,
		Contact:   s.Contact,
	}
}

// Error is a user-input defect. Message is the text to display.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validator applies the student record rules. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON name rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, tagLettersSpaces, namePattern)
	mustRegister(v, tagDigits, digitsPattern)
	mustRegister(v, tagContact, contactPattern)
	mustRegister(v, tagEmail, emailPattern)

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validate: register %s: %v", tag, err))
	}
}

// rule is one step of the ordered form check.
type rule struct {
	field   string
	value   func(Input) string
	tag     string
	message string
}

// patternRules run after the required check, in this order.
var patternRules = []rule{
	{FieldName, func(in Input) string { return in.Name }, tagLettersSpaces, MsgName},
	{FieldStudentID, func(in Input) string { return in.StudentID }, tagDigits, MsgStudentID},
	{FieldContact, func(in Input) string { return in.Contact }, tagContact, MsgContact},
	{FieldEmail, func(in Input) string { return in.Email }, tagEmail, MsgEmail},
}

// Form trims in and checks it, stopping at the first failing rule:
// all fields present, then name, student ID, contact, email.
// On success the returned Student has a zero ID.
func (val *Validator) Form(in Input) (types.Student, error) {
	in = in.Trimmed()

	for _, r := range patternRules {
		if err := val.v.Var(r.value(in), "required"); err != nil {
			return types.Student{}, &Error{Field: r.field, Message: MsgRequired}
		}
	}

	for _, r := range patternRules {
		if err := val.v.Var(r.value(in), r.tag); err != nil {
			return types.Student{}, &Error{Field: r.field, Message: r.message}
		}
	}

	return types.Student{
		Name:      in.Name,
		StudentID: in.StudentID,
		Email:     in.Email,
		Contact:   in.Contact,
	}, nil
}

// Record validates an already-built student, e.g. one decoded from the
// backing store. Fields are checked trimmed, as Form checks them. Only the
// first failing field is reported.
func (val *Validator) Record(s types.Student) error {
	t := FromStudent(s).Trimmed()
	s.Name, s.StudentID, s.Email, s.Contact = t.Name, t.StudentID, t.Email, t.Contact

	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate.Record: %w", err)
	}

	fe := verrs[0]
	return &Error{Field: fe.Field(), Message: messageFor(fe)}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case tagLettersSpaces:
		return MsgName
	case tagDigits:
		return MsgStudentID
	case tagContact:
		return MsgContact
	case tagEmail:
		return MsgEmail
	default:
		return fmt.Sprintf("field %s is invalid", fe.Field())
	}
}
