// Package autobind binds struct fields to integer ids at compile time.
//
// Fields are marked with a struct tag or a comment directive:
//
//	type MainActivity struct {
//		Activity
//
//		testTextView *ui.TextView `bind:"1001"`
//
//		//autobind:id 1002
//		submit *ui.Button
//	}
//
// The generator (cmd/autobind) writes a helper per owner type that resolves
// every id through the owner's FindByID method, plus a RegisterAutobind
// function per package. At runtime a bind.Registry maps owner types to
// their helpers:
//
//	reg := bind.NewRegistry()
//	_ = activity.RegisterAutobind(reg)
//	err := reg.Inject(&activity.MainActivity{})
//
// No reflection walks the struct at runtime and there is no global state:
// the generated code is plain Go, and the registry is passed explicitly.
//
// Layout:
//   - bind: the runtime contract (Finder, Helper, Resolve, Registry)
//   - cmd/autobind: the generate / check command
//   - internal/*: discovery, synthesis and emission behind the command
//   - examples/activity: an end-to-end example
package autobind
