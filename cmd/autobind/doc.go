// Command autobind generates field binding helpers for Go struct types.
//
// A field is bound to an integer id by a struct tag or by a comment line
// directly above it:
//
//	type MainActivity struct {
//		Activity
//
//		testTextView *ui.TextView `bind:"1001"`
//
//		//autobind:id 1002
//		title *ui.TextView
//	}
//
// Only named fields of package-level, non-generic struct types can be bound.
// A directive anywhere else (a function, a type, a local or anonymous struct,
// an embedded field) fails the whole run before any file is written.
//
// What autobind generates
//
// For every owner type with at least one bound field, next to its source:
//
//   - <Owner>_autobind.gen.go with the helper type <Owner>Autobind, its
//     constructor New<Owner>Autobind() bind.Helper and an Inject method that
//     looks every id up through the owner's bind.Finder, then assigns the
//     fields. A failed lookup leaves the target untouched.
//
// And once per package:
//
//   - zz_autobind_registry.gen.go with RegisterAutobind(r *bind.Registry) error,
//     registering every helper of the package.
//
// Output is deterministic: owners, fields and imports are sorted, so running
// autobind twice on the same tree leaves every file byte-identical. Each file
// records a Bindings-SHA256 digest of what it was generated from.
//
// Usage
//
//	autobind generate [dir...]   write helpers and registries
//	autobind check [dir...]      report missing or outdated files, write nothing
//	autobind version             print build information
//
// Directories are scanned recursively; "./..." is accepted. Hidden, "_"-prefixed,
// testdata and vendor directories are skipped.
//
// Typical go:generate usage, from the module root:
//
//	//go:generate go run github.com/sghaida/autobind/cmd/autobind generate ./...
//
// Configuration
//
// Flags default to the values of the nearest autobind.toml above the first
// directory argument (or the working directory):
//
//	[generate]
//	roots = ["."]
//	tag = "bind"
//	jobs = 4
//	exclude = ["internal/legacy", "mock*"]
//	runtime_import = "github.com/sghaida/autobind/bind"
//	keep_orphans = false
//
//	[report]
//	format = "text"   # text | json | yaml
//	color = "auto"    # auto | on | off
//
// Exit status
//
// autobind exits 1 when anything failed: an invalid directive, a field bound
// twice, a generated name that collides with a declaration, a write error or,
// for check, a stale file. Failures other than invalid directives are
// confined to their owner; every other owner is still generated.
package main
