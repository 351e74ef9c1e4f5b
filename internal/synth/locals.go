package synth

import (
	"errors"
	"sort"
	"strconv"
)

var errEmptyGroup = errors.New("no bindings")

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return "field " + strconv.Quote(e.field) + ": " + e.err.Error() }

func (e *fieldError) Unwrap() error { return e.err }

func errorForField(field string, err error) error { return &fieldError{field: field, err: err} }

// locals hands out identifiers for generated local variables that do not
// shadow anything a field type refers to.
type locals struct {
	taken map[string]bool
}

func newLocals(reserved map[string]bool) *locals {
	taken := make(map[string]bool, len(reserved))
	for k := range reserved {
		taken[k] = true
	}
	return &locals{taken: taken}
}

func (l *locals) pick(base string) string {
	name := base
	for l.taken[name] {
		name += "_"
	}
	l.taken[name] = true
	return name
}

func sortStrings(s []string) { sort.Strings(s) }
