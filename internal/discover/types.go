package discover

import (
	"go/ast"
	"go/token"

	"github.com/sghaida/autobind/internal/directive"
	"github.com/sghaida/autobind/internal/naming"
)

// OwnerID identifies an owner type across the whole scan.
// Two types with the same name in different packages are different owners.
type OwnerID struct {
	PkgPath string
	Name    string
}

func (o OwnerID) String() string {
	if o.PkgPath == "" {
		return o.Name
	}
	return o.PkgPath + "." + o.Name
}

// Less orders owners by import path, then by name.
func (o OwnerID) Less(other OwnerID) bool {
	if o.PkgPath != other.PkgPath {
		return o.PkgPath < other.PkgPath
	}
	return o.Name < other.Name
}

// HelperName is the generated helper type name.
func (o OwnerID) HelperName() string { return naming.Helper(o.Name) }

// TargetKind tells what a directive was attached to.
type TargetKind uint8

const (
	// TargetField is a named field of a package-level named struct type,
	// the only valid target.
	TargetField TargetKind = iota + 1
	TargetEmbedded
	TargetBlank
	TargetNested
	TargetGeneric
	TargetType
	TargetFunc
	TargetValue
	TargetImport
	TargetMethodSpec
	TargetDetached
)

func (k TargetKind) String() string {
	switch k {
	case TargetField:
		return "field"
	case TargetEmbedded:
		return "embedded field"
	case TargetBlank:
		return "blank field"
	case TargetNested:
		return "field of an unnamed or local struct"
	case TargetGeneric:
		return "field of a generic type"
	case TargetType:
		return "type declaration"
	case TargetFunc:
		return "function"
	case TargetValue:
		return "variable or constant"
	case TargetImport:
		return "import"
	case TargetMethodSpec:
		return "interface method"
	case TargetDetached:
		return "unattached comment"
	default:
		return "unknown"
	}
}

// Mark is one directive occurrence found by Scan, valid or not.
type Mark struct {
	Target TargetKind

	// Decl names the marked declaration, e.g. "MainActivity.title".
	Decl string
	Pos  token.Position

	Directive directive.Directive

	// Err is set when the directive could not be parsed.
	Err error

	// Set for TargetField only.
	Owner    string
	Field    string
	TypeExpr ast.Expr
	Type     string

	file *File
}

// File is one parsed source file of a package.
type File struct {
	Path    string
	Imports []GoImport
}

// Package is one scanned package directory.
type Package struct {
	Dir     string
	Name    string
	PkgPath string
	Files   []*File

	// Decls holds the package-level identifiers declared outside files
	// written by this generator.
	Decls map[string]token.Position

	// Outputs lists the generator's existing files in Dir, by file name.
	Outputs []string

	Marks []Mark
}

// Binding is one field to fill.
type Binding struct {
	Field string
	ID    int

	// Type is the printed field type; TypeExpr is the same expression as parsed.
	Type     string
	TypeExpr ast.Expr

	Directive directive.Directive
}

// Group is every binding of one owner type.
type Group struct {
	Owner   OwnerID
	Package string
	Dir     string

	// File is the source file declaring the owner; Imports are its imports.
	File    string
	Imports []GoImport

	// Decls is the package's Package.Decls, shared between its groups.
	Decls map[string]token.Position

	// Members are sorted by field name.
	Members []Binding
}

// Failure is an owner dropped from the output.
type Failure struct {
	Owner OwnerID
	Dir   string
	Err   error
}

// Result is the outcome of grouping.
type Result struct {
	Packages []*Package

	// Groups are sorted by owner.
	Groups []*Group

	// Failures are sorted by owner, then message.
	Failures []Failure
}

// GroupsIn returns the groups whose owner lives in dir.
func (r *Result) GroupsIn(dir string) []*Group {
	var out []*Group
	for _, g := range r.Groups {
		if g.Dir == dir {
			out = append(out, g)
		}
	}
	return out
}

// FailedIn reports whether owner name in dir was dropped.
func (r *Result) FailedIn(dir, name string) bool {
	for _, f := range r.Failures {
		if f.Dir == dir && f.Owner.Name == name {
			return true
		}
	}
	return false
}
