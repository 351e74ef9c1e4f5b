package discover

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// modules caches go.mod lookups per directory for one scan.
type modules struct {
	mu    sync.Mutex
	byDir map[string]module
}

type module struct {
	root string
	path string
	err  error
}

func newModules() *modules {
	return &modules{byDir: map[string]module{}}
}

// importPath returns the import path of the package in dir, derived from the
// nearest enclosing go.mod.
func (m *modules) importPath(dir string) (string, error) {
	m.mu.Lock()
	mod, ok := m.byDir[dir]
	if !ok {
		root, path, err := findModule(dir)
		mod = module{root: root, path: path, err: err}
		m.byDir[dir] = mod
	}
	m.mu.Unlock()

	if mod.err != nil {
		return "", mod.err
	}
	return moduleImportPathForDir(mod.root, mod.path, dir)
}

// findModule walks up from startDir to the nearest go.mod and returns its
// directory and module path.
func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			mod := modfile.ModulePath(b)
			if mod == "" {
				return "", "", &ModuleError{Dir: startDir, Msg: "go.mod declares no module path at " + filepath.ToSlash(gomod)}
			}
			return dir, mod, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", &ModuleError{Dir: startDir, Msg: "could not find go.mod starting from " + filepath.ToSlash(startDir)}
}

func moduleImportPathForDir(modRoot, modPath, dir string) (string, error) {
	rel, err := filepath.Rel(modRoot, dir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)

	if rel == "." {
		return modPath, nil
	}
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", &ModuleError{Dir: dir, Msg: "directory is outside module root " + filepath.ToSlash(modRoot)}
	}
	return modPath + "/" + rel, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
