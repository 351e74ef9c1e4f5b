package discover

import (
	"go/ast"
	"path"
	"sort"
	"strconv"
	"strings"
)

// GoImport is one import of the file declaring an owner.
type GoImport struct {
	Name string // optional alias, e.g. "widget"
	Path string // import path, e.g. "example.com/ui/widget"
}

// Ident is the identifier the import is referred to by inside the file.
// Blank and dot imports have no usable identifier and return "".
func (gi GoImport) Ident() string {
	switch gi.Name {
	case "_", ".":
		return ""
	case "":
		return importDefaultIdent(gi.Path)
	default:
		return gi.Name
	}
}

// importDefaultIdent guesses the package name of an unaliased import from its
// path: the last element, minus a major version suffix or a "go-" prefix.
func importDefaultIdent(p string) string {
	base := path.Base(p)
	if len(base) > 1 && base[0] == 'v' && isDigits(base[1:]) {
		if dir := path.Dir(p); dir != "." && dir != "/" {
			base = path.Base(dir)
		}
	}
	if i := strings.Index(base, ".v"); i > 0 && isDigits(base[i+2:]) {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	return strings.ReplaceAll(base, "-", "_")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fileImports(f *ast.File) []GoImport {
	out := make([]GoImport, 0, len(f.Imports))
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		alias := ""
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		out = append(out, GoImport{Name: alias, Path: p})
	}
	return dedupeAndSortImports(out)
}

// FindImport returns the import referred to by ident.
// An explicit alias wins over a guessed default identifier.
func FindImport(imports []GoImport, ident string) (GoImport, bool) {
	for _, gi := range imports {
		if gi.Name == ident {
			return gi, true
		}
	}
	for _, gi := range imports {
		if gi.Name == "" && gi.Ident() == ident {
			return gi, true
		}
	}
	return GoImport{}, false
}

func dedupeAndSortImports(imps []GoImport) []GoImport {
	type key struct {
		path string
		name string
	}
	seen := map[key]bool{}
	out := make([]GoImport, 0, len(imps))
	for _, gi := range imps {
		k := key{path: gi.Path, name: gi.Name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}
