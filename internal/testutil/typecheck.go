package testutil

import (
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Checker type-checks packages held as source. Packages that were never added
// are imported from compiler export data, which covers the standard library.
type Checker struct {
	t    TB
	fset *token.FileSet
	std  types.Importer

	// srcs maps an import path to file name -> source.
	srcs map[string]map[string]string
	pkgs map[string]*types.Package
}

func NewChecker(t TB) *Checker {
	return &Checker{
		t:    t,
		fset: token.NewFileSet(),
		std:  importer.Default(),
		srcs: map[string]map[string]string{},
		pkgs: map[string]*types.Package{},
	}
}

// Add registers the files of package path. Adding to a path merges files.
func (c *Checker) Add(path string, files map[string]string) {
	if c.srcs[path] == nil {
		c.srcs[path] = map[string]string{}
	}
	for name, src := range files {
		c.srcs[path][name] = src
	}
}

// AddDir registers every non-test Go file of dir as package path.
func (c *Checker) AddDir(path, dir string) {
	c.t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.t.Fatalf("read dir %s: %v", dir, err)
	}
	files := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files[name] = MustReadString(c.t, filepath.Join(dir, name))
	}
	c.Add(path, files)
}

// Check type-checks package path and everything it imports, and joins every
// error found in path itself.
func (c *Checker) Check(path string) error {
	_, err := c.check(path)
	return err
}

// Import implements types.Importer.
func (c *Checker) Import(path string) (*types.Package, error) {
	if _, ok := c.srcs[path]; !ok {
		return c.std.Import(path)
	}
	return c.check(path)
}

func (c *Checker) check(path string) (*types.Package, error) {
	if pkg, ok := c.pkgs[path]; ok {
		return pkg, nil
	}

	names := make([]string, 0, len(c.srcs[path]))
	for name := range c.srcs[path] {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	files := make([]*ast.File, 0, len(names))
	for _, name := range names {
		f, err := parser.ParseFile(c.fset, path+"/"+name, c.srcs[path][name], parser.SkipObjectResolution)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	conf := types.Config{
		Importer: c,
		Error:    func(err error) { errs = append(errs, err) },
	}
	pkg, _ := conf.Check(path, c.fset, files, nil)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	c.pkgs[path] = pkg
	return pkg, nil
}
