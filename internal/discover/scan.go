// Package discover finds binding directives in Go source and groups them by
// owner type.
//
// Discovery is split in two steps. Scan walks directories and records every
// directive occurrence as a Mark, valid or not, together with what the
// package already declares. Group then validates placement and builds one
// Group per owner. Both steps are order independent: the same tree yields the
// same Result whatever order directories and files are read in.
package discover

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"go/ast"
	"go/build"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sghaida/autobind/internal/directive"
	"github.com/sghaida/autobind/internal/naming"
)

// Options configures Scan.
type Options struct {
	// Tag is the struct tag key holding ids. Defaults to directive.DefaultTag.
	Tag string

	// Exclude lists directories to skip, as slash paths relative to a root
	// ("internal/legacy") or base-name patterns ("mock*").
	Exclude []string

	// Build decides which files belong to a package: file name suffixes and
	// //go:build lines are evaluated against it. Defaults to build.Default.
	Build *build.Context

	Logger *slog.Logger
}

// Scan walks every root recursively and returns one Package per directory
// holding Go files, sorted by directory. A trailing "/..." on a root is
// accepted and ignored. Hidden, "_"-prefixed, testdata and vendor
// directories are skipped below a root.
func Scan(ctx context.Context, roots []string, opts Options) ([]*Package, error) {
	if opts.Tag == "" {
		opts.Tag = directive.DefaultTag
	}
	logger := cmp.Or(opts.Logger, slog.Default())
	bctx := opts.Build
	if bctx == nil {
		bctx = &build.Default
	}

	dirs, err := collectDirs(ctx, roots, opts.Exclude)
	if err != nil {
		return nil, err
	}

	mods := newModules()
	fset := token.NewFileSet()

	var (
		pkgs []*Package
		errs []error
	)
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pkg, err := loadPackage(fset, bctx, mods, dir, opts.Tag)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if pkg == nil {
			continue
		}
		logger.Debug("scanned package", "dir", pkg.Dir, "package", pkg.PkgPath, "files", len(pkg.Files), "marks", len(pkg.Marks))
		pkgs = append(pkgs, pkg)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return pkgs, nil
}

func collectDirs(ctx context.Context, roots []string, exclude []string) ([]string, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	seen := map[string]bool{}
	var dirs []string
	for _, root := range roots {
		root = strings.TrimSuffix(filepath.ToSlash(root), "/...")
		if root == "" {
			root = "."
		}
		abs, err := filepath.Abs(filepath.FromSlash(root))
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, werr error) error {
			if werr != nil {
				return werr
			}
			if !d.IsDir() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if p != abs && skipDir(abs, p, exclude) {
				return filepath.SkipDir
			}
			if !seen[p] {
				seen[p] = true
				dirs = append(dirs, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func skipDir(root, dir string, exclude []string) bool {
	base := filepath.Base(dir)
	switch {
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "_"):
		return true
	case base == "testdata", base == "vendor":
		return true
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range exclude {
		ex = strings.TrimPrefix(path.Clean(filepath.ToSlash(ex)), "./")
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
		if ok, _ := path.Match(ex, base); ok {
			return true
		}
	}
	return false
}

// isSourceFile keeps the files whose declarations are scanned for directives.
func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, ".gen.go")
}

func loadPackage(fset *token.FileSet, bctx *build.Context, mods *modules, dir, tag string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	pkg := &Package{Dir: dir, Decls: map[string]token.Position{}}
	names := map[string]bool{}
	var errs []error

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		full := filepath.Join(dir, name)

		// Outputs carry no constraints; everything else must build for bctx.
		if !naming.IsOutputName(name) {
			match, err := bctx.MatchFile(dir, name)
			if err != nil {
				errs = append(errs, &ParseError{Path: full, Err: err})
				continue
			}
			if !match {
				continue
			}
		}

		src, err := os.ReadFile(full)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if naming.IsOutputName(name) && naming.IsGenerated(src) {
			pkg.Outputs = append(pkg.Outputs, name)
			continue
		}

		f, err := parser.ParseFile(fset, full, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			errs = append(errs, &ParseError{Path: full, Err: err})
			continue
		}
		names[f.Name.Name] = true
		collectDecls(fset, f, pkg.Decls)

		// Files produced by other generators can clash with our names
		// but are not scanned for directives.
		if !isSourceFile(name) {
			continue
		}

		file := &File{Path: full, Imports: fileImports(f)}
		pkg.Files = append(pkg.Files, file)

		s := &fileScanner{
			fset:   fset,
			tag:    tag,
			file:   file,
			used:   map[*ast.Comment]bool{},
			owners: map[*ast.StructType]bool{},
		}
		s.scan(f)
		pkg.Marks = append(pkg.Marks, s.marks...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(names) == 0 {
		return nil, nil
	}
	if len(names) > 1 {
		var list []string
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		return nil, &PackageNameError{Dir: dir, Names: list}
	}
	for n := range names {
		pkg.Name = n
	}

	// A directory without directives needs no import path unless it still
	// holds outputs to prune.
	if len(pkg.Marks) > 0 || len(pkg.Outputs) > 0 {
		pkg.PkgPath, err = mods.importPath(dir)
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(pkg.Outputs)
	return pkg, nil
}

func collectDecls(fset *token.FileSet, f *ast.File, into map[string]token.Position) {
	add := func(id *ast.Ident) {
		if id == nil || id.Name == "_" {
			return
		}
		if _, ok := into[id.Name]; !ok {
			into[id.Name] = fset.Position(id.Pos())
		}
	}
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				add(d.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					add(s.Name)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						add(n)
					}
				}
			}
		}
	}
}

// fileScanner collects the marks of one file.
type fileScanner struct {
	fset *token.FileSet
	tag  string
	file *File

	// used holds directive comments already accounted for; whatever is left
	// at the end is unattached.
	used map[*ast.Comment]bool

	// owners holds the struct types of package-level named types.
	owners map[*ast.StructType]bool

	marks []Mark
}

func (s *fileScanner) scan(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			s.declComment(TargetFunc, funcName(d), d.Doc)
		case *ast.GenDecl:
			s.genDecl(d)
		}
	}

	ast.Inspect(f, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.StructType:
			if !s.owners[t] {
				s.nestedStruct(t)
			}
		case *ast.InterfaceType:
			s.interfaceMethods(t)
		}
		return true
	})

	for _, g := range f.Comments {
		for _, c := range g.List {
			if strings.HasPrefix(c.Text, directive.CommentPrefix) && !s.used[c] {
				s.invalid(TargetDetached, c.Text, c.Pos())
			}
		}
	}
}

func (s *fileScanner) genDecl(d *ast.GenDecl) {
	grouped := d.Lparen.IsValid()

	if grouped && directive.HasComment(d.Doc) {
		s.declComment(genKind(d.Tok), d.Tok.String()+" (...)", d.Doc)
	}

	for _, spec := range d.Specs {
		var docs []*ast.CommentGroup
		if !grouped {
			docs = append(docs, d.Doc)
		}

		switch sp := spec.(type) {
		case *ast.TypeSpec:
			docs = append(docs, sp.Doc, sp.Comment)
			s.declComment(TargetType, "type "+sp.Name.Name, docs...)

			st, ok := sp.Type.(*ast.StructType)
			if ok && !sp.Assign.IsValid() {
				s.owners[st] = true
				s.ownerStruct(sp, st)
			}
		case *ast.ValueSpec:
			docs = append(docs, sp.Doc, sp.Comment)
			s.declComment(genKind(d.Tok), d.Tok.String()+" "+identNames(sp.Names), docs...)
		case *ast.ImportSpec:
			docs = append(docs, sp.Doc, sp.Comment)
			s.declComment(TargetImport, "import "+sp.Path.Value, docs...)
		}
	}
}

func genKind(tok token.Token) TargetKind {
	switch tok {
	case token.TYPE:
		return TargetType
	case token.IMPORT:
		return TargetImport
	default:
		return TargetValue
	}
}

// declComment records an invalid mark for every directive comment in groups.
func (s *fileScanner) declComment(kind TargetKind, decl string, groups ...*ast.CommentGroup) {
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if strings.HasPrefix(c.Text, directive.CommentPrefix) && !s.used[c] {
				s.used[c] = true
				s.invalid(kind, decl, c.Pos())
			}
		}
	}
}

func (s *fileScanner) invalid(kind TargetKind, decl string, pos token.Pos) {
	s.marks = append(s.marks, Mark{Target: kind, Decl: decl, Pos: s.fset.Position(pos), file: s.file})
}

// fieldDirectives returns the directives of one field. present reports
// whether the field carries any directive at all, even an unparsable one.
func (s *fileScanner) fieldDirectives(fld *ast.Field) (ds []directive.Directive, present bool, err error) {
	d, found, terr := directive.FromTag(s.fset, fld.Tag, s.tag)
	if found {
		present = true
		if terr == nil {
			ds = append(ds, d)
		}
	}
	if terr != nil && err == nil {
		err = terr
	}

	if directive.HasComment(fld.Doc, fld.Comment) {
		present = true
		s.consume(fld.Doc, fld.Comment)
		cds, cerr := directive.FromComments(s.fset, fld.Doc, fld.Comment)
		if cerr != nil && err == nil {
			err = cerr
		}
		ds = append(ds, cds...)
	}

	// A malformed tag literal with no directive anywhere else is not ours.
	if !present {
		err = nil
	}
	return ds, present, err
}

func (s *fileScanner) consume(groups ...*ast.CommentGroup) {
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if strings.HasPrefix(c.Text, directive.CommentPrefix) {
				s.used[c] = true
			}
		}
	}
}

func (s *fileScanner) ownerStruct(ts *ast.TypeSpec, st *ast.StructType) {
	owner := ts.Name.Name
	for _, fld := range st.Fields.List {
		ds, present, err := s.fieldDirectives(fld)
		if !present {
			continue
		}
		pos := s.fset.Position(fld.Pos())

		switch {
		case len(fld.Names) == 0:
			s.marks = append(s.marks, Mark{Target: TargetEmbedded, Decl: owner + "." + exprString(s.fset, fld.Type), Pos: pos, file: s.file})
			continue
		case ts.TypeParams != nil:
			s.marks = append(s.marks, Mark{Target: TargetGeneric, Decl: owner + "." + identNames(fld.Names), Pos: pos, file: s.file})
			continue
		}

		typ := exprString(s.fset, fld.Type)
		for _, name := range fld.Names {
			decl := owner + "." + name.Name
			if name.Name == "_" {
				s.marks = append(s.marks, Mark{Target: TargetBlank, Decl: decl, Pos: pos, file: s.file})
				continue
			}

			m := Mark{
				Target:   TargetField,
				Decl:     decl,
				Pos:      pos,
				Owner:    owner,
				Field:    name.Name,
				TypeExpr: fld.Type,
				Type:     typ,
				file:     s.file,
			}
			if err != nil {
				m.Err = err
				s.marks = append(s.marks, m)
				continue
			}
			for _, d := range ds {
				m.Directive = d
				m.Pos = d.Pos
				s.marks = append(s.marks, m)
			}
		}
	}
}

func (s *fileScanner) nestedStruct(st *ast.StructType) {
	for _, fld := range st.Fields.List {
		if _, present, _ := s.fieldDirectives(fld); !present {
			continue
		}
		decl := identNames(fld.Names)
		if decl == "" {
			decl = exprString(s.fset, fld.Type)
		}
		s.marks = append(s.marks, Mark{Target: TargetNested, Decl: decl, Pos: s.fset.Position(fld.Pos()), file: s.file})
	}
}

func (s *fileScanner) interfaceMethods(it *ast.InterfaceType) {
	for _, m := range it.Methods.List {
		decl := identNames(m.Names)
		if decl == "" {
			decl = exprString(s.fset, m.Type)
		}
		s.declComment(TargetMethodSpec, decl, m.Doc, m.Comment)
	}
}

func funcName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}
	return "(" + recvString(d.Recv.List[0].Type) + ")." + d.Name.Name
}

// recvString prints a receiver type without a file set; receivers are simple.
func recvString(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + recvString(t.X)
	case *ast.IndexExpr:
		return recvString(t.X) + "[...]"
	case *ast.IndexListExpr:
		return recvString(t.X) + "[...]"
	default:
		return "?"
	}
}

func identNames(ids []*ast.Ident) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Name)
	}
	return strings.Join(names, ", ")
}

func exprString(fset *token.FileSet, e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, e); err != nil {
		return "?"
	}
	return buf.String()
}
