package bind

import "reflect"

// Helper is implemented by every generated <Owner>Autobind type.
//
// Inject assigns all bound fields of target, which must be a *Owner. It either
// assigns every field or returns an error without assigning any.
type Helper interface {
	Inject(target any) error
}

// Finder is the host primitive resolving a value by integer id. Owner types
// implement it directly or through an embedded type.
type Finder interface {
	FindByID(id int) (any, bool)
}

// Resolve looks up id through f and converts the result to T. field names the
// destination field and is only used for error context.
//
// It returns MissingIDError if f has no value for id, and WrongTypeError if the
// value is not a T.
func Resolve[T any](f Finder, id int, field string) (T, error) {
	var zero T

	raw, ok := f.FindByID(id)
	if !ok {
		return zero, MissingIDError{ID: id, Field: field}
	}

	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{
			ID:    id,
			Field: field,
			Want:  reflect.TypeFor[T]().String(),
			Got:   TypeName(raw),
		}
	}
	return v, nil
}

// TypeName returns the dynamic type of v as printed by %T, or "<nil>".
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
