package bind

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Suffix is appended to an owner type's name to form its helper's name.
const Suffix = "Autobind"

// Factory constructs a helper. Generated New<Owner>Autobind functions have this signature.
type Factory func() Helper

type entry struct {
	helper  string
	factory Factory
}

// Registry maps owner types to generated helper factories.
//
// It is safe for concurrent use. Registration normally happens once at start-up
// through the generated RegisterAutobind functions; lookups dominate afterwards.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]entry
	byName map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: map[reflect.Type]entry{},
		byName: map[string]Factory{},
	}
}

// Register associates owner type T with factory. T must be the owner struct
// type itself, not a pointer to it.
//
// It returns ErrNilFactory for a nil factory, an error if T is not a named
// struct type, and DuplicateRegistrationError if T already has a helper.
func Register[T any](r *Registry, factory Factory) error {
	return r.register(reflect.TypeFor[T](), factory)
}

func (r *Registry) register(typ reflect.Type, factory Factory) error {
	if factory == nil {
		return ErrNilFactory
	}
	if typ.Kind() != reflect.Struct || typ.Name() == "" {
		return fmt.Errorf("bind: cannot register helper for %s: owner must be a named struct type", typ)
	}

	name := helperName(typ)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byType[typ]; exists {
		return DuplicateRegistrationError{Helper: name}
	}
	r.byType[typ] = entry{helper: name, factory: factory}
	r.byName[name] = factory
	return nil
}

// Inject finds the helper registered for target's type and invokes it.
//
// target must be a non-nil pointer to a registered owner struct. Every failure
// is reported as a *ResolutionError; when Inject fails, no field of target has
// been modified by the helper.
func (r *Registry) Inject(target any) (err error) {
	if target == nil {
		return &ResolutionError{Type: "<nil>", Err: ErrNilTarget}
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem().Kind() != reflect.Struct {
		return &ResolutionError{Type: TypeName(target), Err: ErrNotPointer}
	}
	owner := rv.Type().Elem()

	r.mu.RLock()
	e, ok := r.byType[owner]
	r.mu.RUnlock()

	if !ok {
		return &ResolutionError{Type: canonicalName(owner), Helper: helperName(owner), Err: ErrHelperNotFound}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &ResolutionError{
				Type:   canonicalName(owner),
				Helper: e.helper,
				Err:    fmt.Errorf("%w: %v", ErrHelperPanic, rec),
			}
		}
	}()

	h := e.factory()
	if h == nil {
		return &ResolutionError{Type: canonicalName(owner), Helper: e.helper, Err: ErrNilHelper}
	}
	if err := h.Inject(target); err != nil {
		return &ResolutionError{Type: canonicalName(owner), Helper: e.helper, Err: err}
	}
	return nil
}

// Lookup returns the factory registered under a canonical helper name such as
// "github.com/acme/app/activity.MainActivityAutobind".
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	return f, ok
}

// Names returns the canonical names of all registered helpers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered helpers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}

// HelperName returns the canonical helper name for target, which may be an
// owner value or a pointer to one. It returns "" for unnamed types.
func HelperName(target any) string {
	if target == nil {
		return ""
	}
	typ := reflect.TypeOf(target)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Name() == "" {
		return ""
	}
	return helperName(typ)
}

func canonicalName(typ reflect.Type) string {
	if typ.PkgPath() == "" {
		return typ.Name()
	}
	return typ.PkgPath() + "." + typ.Name()
}

func helperName(typ reflect.Type) string {
	return canonicalName(typ) + Suffix
}
