// Package directive defines the binding directive: the marker attached to a
// struct field carrying the integer id the field is bound to.
//
// Two spellings are accepted:
//
//	type MainActivity struct {
//		testTextView *TextView `bind:"1001"`
//
//		//autobind:id 1002
//		title *TextView
//	}
//
// This package only knows the shape of a directive. Whether a directive sits on
// something that can carry it is decided by the discover package.
package directive

import (
	"errors"
	"go/ast"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/ygrebnov/errorc"
)

const (
	// DefaultTag is the struct tag key read when no other key is configured.
	DefaultTag = "bind"

	// CommentPrefix starts every comment directive.
	CommentPrefix = "//autobind:"

	// verbID is the only comment verb: //autobind:id <n>.
	verbID = "id"
)

// Kind tells how a directive was spelled.
type Kind uint8

const (
	KindTag Kind = iota + 1
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Directive is one parsed binding marker.
type Directive struct {
	ID   int
	Kind Kind

	// Raw is the payload as written, e.g. "1001".
	Raw string
	Pos token.Position
}

var (
	// ErrInvalidPayload is returned when a payload is not a non-negative base-10 integer.
	ErrInvalidPayload = errors.New("directive: payload must be a non-negative base-10 integer")

	// ErrUnknownVerb is returned for //autobind:<verb> comments other than //autobind:id.
	ErrUnknownVerb = errors.New("directive: unknown verb")

	// ErrMalformedTag is returned when a struct tag literal cannot be unquoted.
	ErrMalformedTag = errors.New("directive: malformed struct tag")
)

// Structured error field keys.
const (
	FieldRaw  = "directive.raw"
	FieldKind = "directive.kind"
	FieldPos  = "directive.pos"
)

// ParsePayload converts a raw payload into an id.
func ParsePayload(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, errorc.With(ErrInvalidPayload, errorc.Field(FieldRaw, raw))
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, errorc.With(ErrInvalidPayload, errorc.Field(FieldRaw, raw))
	}
	return id, nil
}

// FromTag reads the directive from a field's struct tag under key.
// found is false when the field has no tag or the tag has no such key.
func FromTag(fset *token.FileSet, lit *ast.BasicLit, key string) (d Directive, found bool, err error) {
	if lit == nil {
		return Directive{}, false, nil
	}

	pos := fset.Position(lit.Pos())

	unquoted, err := strconv.Unquote(lit.Value)
	if err != nil {
		return Directive{}, false, errorc.With(ErrMalformedTag,
			errorc.Field(FieldRaw, lit.Value),
			errorc.Field(FieldPos, pos.String()),
		)
	}

	raw, ok := reflect.StructTag(unquoted).Lookup(key)
	if !ok {
		return Directive{}, false, nil
	}

	id, err := ParsePayload(raw)
	if err != nil {
		return Directive{}, true, errorc.With(err,
			errorc.Field(FieldKind, KindTag.String()),
			errorc.Field(FieldPos, pos.String()),
		)
	}
	return Directive{ID: id, Kind: KindTag, Raw: raw, Pos: pos}, true, nil
}

// FromComments returns every comment directive found in groups, in source order.
// Ordinary comments are ignored.
func FromComments(fset *token.FileSet, groups ...*ast.CommentGroup) ([]Directive, error) {
	var out []Directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if !strings.HasPrefix(c.Text, CommentPrefix) {
				continue
			}
			pos := fset.Position(c.Pos())

			verb, payload := splitVerb(strings.TrimPrefix(c.Text, CommentPrefix))
			if verb != verbID {
				return nil, errorc.With(ErrUnknownVerb,
					errorc.Field(FieldRaw, c.Text),
					errorc.Field(FieldPos, pos.String()),
				)
			}

			id, err := ParsePayload(payload)
			if err != nil {
				return nil, errorc.With(err,
					errorc.Field(FieldKind, KindComment.String()),
					errorc.Field(FieldPos, pos.String()),
				)
			}
			out = append(out, Directive{ID: id, Kind: KindComment, Raw: strings.TrimSpace(payload), Pos: pos})
		}
	}
	return out, nil
}

// splitVerb splits a directive comment at the first run of white space.
func splitVerb(s string) (verb, payload string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// HasComment reports whether any comment in groups starts with CommentPrefix.
// It is used to find directives attached to declarations that cannot carry one.
func HasComment(groups ...*ast.CommentGroup) bool {
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if strings.HasPrefix(c.Text, CommentPrefix) {
				return true
			}
		}
	}
	return false
}
