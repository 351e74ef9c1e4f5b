package synth

import (
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/sghaida/autobind/internal/discover"
)

// typeConverter rewrites a field type expression from the owner's file into
// jennifer code. Package qualifiers are resolved against that file's imports
// and registered on the output file, so the helper refers to exactly the
// packages the owner does.
type typeConverter struct {
	file    *jen.File
	imports []discover.GoImport

	// dot is set when the owner's file has a dot import; bare identifiers
	// might then come from it and cannot be reproduced.
	dot bool

	// idents collects bare identifiers so generated locals can avoid them.
	idents map[string]bool

	// used maps import paths to the identifier they were registered under.
	used map[string]string
}

func newTypeConverter(f *jen.File, imports []discover.GoImport) *typeConverter {
	c := &typeConverter{file: f, imports: imports, idents: map[string]bool{}, used: map[string]string{}}
	for _, gi := range imports {
		if gi.Name == "." {
			c.dot = true
		}
	}
	return c
}

type unsupportedTypeError struct {
	expr string
	msg  string
}

func (e *unsupportedTypeError) Error() string {
	return "unsupported field type " + strconv.Quote(e.expr) + ": " + e.msg
}

func unsupported(e ast.Expr, msg string) error {
	return &unsupportedTypeError{expr: types.ExprString(e), msg: msg}
}

func (c *typeConverter) typ(e ast.Expr) (*jen.Statement, error) {
	switch t := e.(type) {
	case *ast.Ident:
		if c.dot && types.Universe.Lookup(t.Name) == nil {
			return nil, unsupported(e, "identifier may come from a dot import")
		}
		c.idents[t.Name] = true
		return jen.Id(t.Name), nil

	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return nil, unsupported(e, "qualifier is not a package name")
		}
		gi, err := c.resolve(pkg.Name)
		if err != nil {
			return nil, unsupported(e, err.Error())
		}
		return jen.Qual(gi.Path, t.Sel.Name), nil

	case *ast.StarExpr:
		x, err := c.typ(t.X)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(x), nil

	case *ast.ParenExpr:
		x, err := c.typ(t.X)
		if err != nil {
			return nil, err
		}
		return jen.Parens(x), nil

	case *ast.ArrayType:
		elt, err := c.typ(t.Elt)
		if err != nil {
			return nil, err
		}
		if t.Len == nil {
			return jen.Index().Add(elt), nil
		}
		n, err := c.arrayLen(t.Len)
		if err != nil {
			return nil, err
		}
		return jen.Index(n).Add(elt), nil

	case *ast.MapType:
		k, err := c.typ(t.Key)
		if err != nil {
			return nil, err
		}
		v, err := c.typ(t.Value)
		if err != nil {
			return nil, err
		}
		return jen.Map(k).Add(v), nil

	case *ast.ChanType:
		v, err := c.typ(t.Value)
		if err != nil {
			return nil, err
		}
		switch t.Dir {
		case ast.RECV:
			return jen.Op("<-").Chan().Add(v), nil
		case ast.SEND:
			return jen.Chan().Op("<-").Add(v), nil
		default:
			return jen.Chan().Add(v), nil
		}

	case *ast.FuncType:
		return c.funcType(t)

	case *ast.InterfaceType:
		if t.Methods != nil && len(t.Methods.List) > 0 {
			return nil, unsupported(e, "interface literal with methods")
		}
		return jen.Interface(), nil

	case *ast.StructType:
		if t.Fields != nil && len(t.Fields.List) > 0 {
			return nil, unsupported(e, "struct literal with fields")
		}
		return jen.Struct(), nil

	case *ast.IndexExpr:
		x, err := c.typ(t.X)
		if err != nil {
			return nil, err
		}
		idx, err := c.typ(t.Index)
		if err != nil {
			return nil, err
		}
		return x.Types(idx), nil

	case *ast.IndexListExpr:
		x, err := c.typ(t.X)
		if err != nil {
			return nil, err
		}
		args := make([]jen.Code, 0, len(t.Indices))
		for _, ix := range t.Indices {
			a, err := c.typ(ix)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return x.Types(args...), nil

	default:
		return nil, unsupported(e, "expression kind not supported")
	}
}

func (c *typeConverter) arrayLen(e ast.Expr) (*jen.Statement, error) {
	switch n := e.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT {
			return nil, unsupported(e, "array length is not an integer")
		}
		return jen.Id(n.Value), nil
	case *ast.Ident, *ast.SelectorExpr:
		return c.typ(n)
	case *ast.Ellipsis:
		return nil, unsupported(e, "array length cannot be inferred in a field")
	default:
		return nil, unsupported(e, "array length must be a literal or a constant name")
	}
}

func (c *typeConverter) funcType(t *ast.FuncType) (*jen.Statement, error) {
	params, err := c.fieldTypes(t.Params)
	if err != nil {
		return nil, err
	}
	results, err := c.fieldTypes(t.Results)
	if err != nil {
		return nil, err
	}

	s := jen.Func().Params(params...)
	switch len(results) {
	case 0:
		return s, nil
	case 1:
		return s.Add(results[0]), nil
	default:
		return s.Params(results...), nil
	}
}

// fieldTypes lists parameter types, dropping names.
func (c *typeConverter) fieldTypes(fl *ast.FieldList) ([]jen.Code, error) {
	if fl == nil {
		return nil, nil
	}
	var out []jen.Code
	for _, f := range fl.List {
		var (
			typ *jen.Statement
			err error
		)
		if ell, ok := f.Type.(*ast.Ellipsis); ok {
			var elt *jen.Statement
			elt, err = c.typ(ell.Elt)
			typ = jen.Op("...").Add(elt)
		} else {
			typ, err = c.typ(f.Type)
		}
		if err != nil {
			return nil, err
		}
		n := max(len(f.Names), 1)
		for range n {
			out = append(out, typ.Clone())
		}
	}
	return out, nil
}

// resolve maps a package qualifier to an import of the owner's file and
// registers it on the output file under the same identifier.
func (c *typeConverter) resolve(ident string) (discover.GoImport, error) {
	gi, ok := discover.FindImport(c.imports, ident)
	if !ok {
		gi, ok = c.fuzzy(ident)
	}
	if !ok {
		return discover.GoImport{}, &unresolvedQualifierError{ident: ident}
	}

	if prev, seen := c.used[gi.Path]; !seen {
		c.used[gi.Path] = ident
		if gi.Name != "" {
			c.file.ImportAlias(gi.Path, ident)
		} else {
			c.file.ImportName(gi.Path, ident)
		}
	} else if prev != ident {
		return discover.GoImport{}, &unresolvedQualifierError{ident: ident, path: gi.Path, prev: prev}
	}
	return gi, nil
}

// fuzzy matches an unaliased import whose last path element contains ident,
// for packages named differently from their directory ("go-widget" holding
// package widget). It only succeeds when the match is unique.
func (c *typeConverter) fuzzy(ident string) (discover.GoImport, bool) {
	var found []discover.GoImport
	for _, gi := range c.imports {
		if gi.Name != "" {
			continue
		}
		if containsFold(lastElem(gi.Path), ident) {
			found = append(found, gi)
		}
	}
	if len(found) != 1 {
		return discover.GoImport{}, false
	}
	return found[0], true
}

type unresolvedQualifierError struct {
	ident string
	path  string
	prev  string
}

func (e *unresolvedQualifierError) Error() string {
	if e.path != "" {
		return "package " + strconv.Quote(e.path) + " is referred to as both " + e.prev + " and " + e.ident
	}
	return "no import of the owner's file provides package " + strconv.Quote(e.ident)
}

func lastElem(p string) string { return path.Base(p) }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
