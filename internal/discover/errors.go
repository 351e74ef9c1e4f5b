package discover

import (
	"go/token"
	"strconv"
)

// ModuleError is returned when a package directory cannot be mapped to an
// import path through a go.mod file.
type ModuleError struct {
	Dir string
	Msg string
}

func (e *ModuleError) Error() string {
	return "discover: " + e.Msg + " (dir " + strconv.Quote(e.Dir) + ")"
}

// ParseError wraps a Go syntax error in a scanned file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "discover: parse " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// PackageNameError is returned when one directory holds files of more than
// one package (test packages excluded).
type PackageNameError struct {
	Dir   string
	Names []string
}

func (e *PackageNameError) Error() string {
	msg := "discover: multiple packages in " + strconv.Quote(e.Dir) + ":"
	for _, n := range e.Names {
		msg += " " + n
	}
	return msg
}

// InvalidTargetError is returned when a directive is attached to something
// other than a field of a package-level named struct type. It fails the whole
// pass before anything is generated.
type InvalidTargetError struct {
	Target TargetKind
	Decl   string
	Pos    token.Position
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	// Example: a.go:3:1: autobind: directive on function "Bind": only fields of package-level named struct types can be bound
	return e.Pos.String() + ": autobind: directive on " + e.Target.String() + " " + strconv.Quote(e.Decl) +
		": only fields of package-level named struct types can be bound"
}

// InvalidDirectiveError is returned when a directive sits on a valid field but
// its payload cannot be parsed. Like InvalidTargetError it fails the pass.
type InvalidDirectiveError struct {
	Decl string
	Pos  token.Position
	Err  error
}

func (e *InvalidDirectiveError) Error() string {
	return e.Pos.String() + ": autobind: invalid directive on " + strconv.Quote(e.Decl) + ": " + e.Err.Error()
}

func (e *InvalidDirectiveError) Unwrap() error { return e.Err }

// DuplicateFieldError is returned when one field of an owner carries more
// than one directive, or a field name is bound twice. The owner is dropped.
type DuplicateFieldError struct {
	Owner  OwnerID
	Field  string
	First  token.Position
	Second token.Position
}

func (e *DuplicateFieldError) Error() string {
	return e.Second.String() + ": autobind: field " + strconv.Quote(e.Field) + " of " + e.Owner.String() +
		" bound twice (first at " + e.First.String() + ")"
}

// NameCollisionError is returned when a name the generator would declare is
// already declared in the owner's package, or would be declared twice.
type NameCollisionError struct {
	Owner OwnerID
	Name  string

	// Pos is where the existing declaration lives. It is zero when the clash
	// is between two generated names.
	Pos token.Position

	// With is the other owner producing Name, if any.
	With string
}

func (e *NameCollisionError) Error() string {
	msg := "autobind: generated name " + strconv.Quote(e.Name) + " for " + e.Owner.String()
	switch {
	case e.Pos.IsValid():
		msg += " collides with declaration at " + e.Pos.String()
	case e.With != "":
		msg += " collides with generated name for " + e.With
	default:
		msg += " collides with an existing declaration"
	}
	return msg
}
