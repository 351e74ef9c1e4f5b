// Package bind is the runtime half of autobind.
//
// The autobind generator emits, for every struct type with fields tagged
// `bind:"<id>"` (or marked with a //autobind:id comment), a helper type named
// <Owner>Autobind whose Inject method resolves each id through the owner's
// FindByID method and assigns the results to the tagged fields. This package
// defines the contract those helpers implement and the registry used to find
// them at runtime.
//
// There is no global registry. Construct one in your composition root, let
// every generated package register its helpers, then pass the registry to
// wherever injection happens:
//
//	reg := bind.NewRegistry()
//	if err := activity.RegisterAutobind(reg); err != nil {
//		// two packages registered the same owner type
//	}
//
//	a := &activity.MainActivity{}
//	a.SetContentView(layout)
//	if err := reg.Inject(a); err != nil {
//		// no field of a was modified
//	}
//
// Naming contract
//
// The helper for owner type pkg.T is named T + Suffix and lives in pkg. Its
// canonical name, used by Registry.Lookup and in errors, is
// "<import path>.T" + Suffix (see HelperName). The generator and this package
// share the Suffix constant so the two sides cannot drift apart.
//
// Injection is all-or-nothing: generated helpers resolve every id before the
// first assignment, so a failed Inject leaves the target untouched.
package bind
