package bind

import (
	"errors"
	"strconv"
)

var (
	// ErrNilTarget is returned when Inject is called with a nil target.
	ErrNilTarget = errors.New("bind: nil target")

	// ErrNotPointer is returned when the target is not a pointer to a named struct.
	ErrNotPointer = errors.New("bind: target must be a non-nil pointer to a named struct")

	// ErrHelperNotFound is returned when no helper was registered for the target's type.
	ErrHelperNotFound = errors.New("bind: no helper registered")

	// ErrNilFactory is returned by Register when the factory is nil.
	ErrNilFactory = errors.New("bind: nil helper factory")

	// ErrNilHelper is returned when a registered factory produces a nil helper.
	ErrNilHelper = errors.New("bind: factory returned a nil helper")

	// ErrHelperPanic is returned if a helper (or the target's FindByID) panics during Inject.
	ErrHelperPanic = errors.New("bind: panic during Inject")
)

// MissingIDError is returned by Resolve when the finder has no value for an id.
type MissingIDError struct {
	ID    int
	Field string
}

// Error implements the error interface.
func (e MissingIDError) Error() string {
	// Example: bind: id 1001 for field "testTextView" not found
	return "bind: id " + strconv.Itoa(e.ID) + " for field " + strconv.Quote(e.Field) + " not found"
}

// WrongTypeError is returned by Resolve when the value found for an id is not
// assignable to the field's type.
type WrongTypeError struct {
	ID    int
	Field string

	// Want is the field's type, Got the dynamic type of the resolved value.
	Want string
	Got  string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: bind: id 1001 for field "title" has type *activity.Button, want *activity.TextView
	return "bind: id " + strconv.Itoa(e.ID) + " for field " + strconv.Quote(e.Field) +
		" has type " + e.Got + ", want " + e.Want
}

// TargetTypeError is returned by a generated helper when it is handed an
// object of a type other than its owner.
type TargetTypeError struct {
	Want string
	Got  string
}

// Error implements the error interface.
func (e TargetTypeError) Error() string {
	return "bind: helper for " + e.Want + " cannot inject into " + e.Got
}

// DuplicateRegistrationError is returned by Register when a helper is already
// registered for the owner type.
type DuplicateRegistrationError struct{ Helper string }

// Error implements the error interface.
func (e DuplicateRegistrationError) Error() string {
	return "bind: duplicate registration of " + strconv.Quote(e.Helper)
}

// ResolutionError is the single error surfaced by Registry.Inject. Type is the
// canonical name of the target's type, Helper the helper name derived from it.
//
// Err carries the cause; use errors.Is / errors.As to inspect it.
type ResolutionError struct {
	Type   string
	Helper string
	Err    error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Helper == "" {
		return "bind: inject " + e.Type + ": " + e.Err.Error()
	}
	return "bind: inject " + e.Type + " via " + e.Helper + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *ResolutionError) Unwrap() error { return e.Err }
