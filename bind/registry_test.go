package bind

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label struct{ text string }

type screen struct {
	views map[int]any

	title *label
	count int
}

func (s *screen) FindByID(id int) (any, bool) {
	v, ok := s.views[id]
	return v, ok
}

// screenHelper is written the way the generator writes helpers.
type screenHelper struct{}

func (screenHelper) Inject(target any) error {
	t, ok := target.(*screen)
	if !ok || t == nil {
		return TargetTypeError{Want: "*bind.screen", Got: TypeName(target)}
	}
	v0, err := Resolve[int](t, 2, "count")
	if err != nil {
		return err
	}
	v1, err := Resolve[*label](t, 1, "title")
	if err != nil {
		return err
	}
	t.count = v0
	t.title = v1
	return nil
}

func newScreenHelper() Helper { return screenHelper{} }

type panicky struct{}

type panickyHelper struct{}

func (panickyHelper) Inject(any) error { panic("boom") }

//
// -----------------------------------------------------------------------------
// Register
// -----------------------------------------------------------------------------

// TestRegister_StoresByTypeAndName verifies a registration is reachable by type and canonical name.
func TestRegister_StoresByTypeAndName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[screen](r, newScreenHelper))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"github.com/sghaida/autobind/bind.screenAutobind"}, r.Names())

	f, ok := r.Lookup("github.com/sghaida/autobind/bind.screenAutobind")
	require.True(t, ok)
	assert.IsType(t, screenHelper{}, f())
}

// TestRegister_Duplicate verifies a second registration for the same owner fails.
func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[screen](r, newScreenHelper))

	err := Register[screen](r, newScreenHelper)
	var dup DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "github.com/sghaida/autobind/bind.screenAutobind", dup.Helper)
	assert.Equal(t, 1, r.Len())
}

// TestRegister_Rejects verifies nil factories and non-struct owners are refused.
func TestRegister_Rejects(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.ErrorIs(t, Register[screen](r, nil), ErrNilFactory)
	require.Error(t, Register[*screen](r, newScreenHelper))
	require.Error(t, Register[int](r, newScreenHelper))
	assert.Equal(t, 0, r.Len())
}

// TestRegister_Concurrent verifies distinct owners can be registered from many goroutines.
func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				errs[i] = Register[screen](r, newScreenHelper)
			} else {
				errs[i] = Register[panicky](r, func() Helper { return panickyHelper{} })
			}
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, r.Len())
}

//
// -----------------------------------------------------------------------------
// Inject
// -----------------------------------------------------------------------------

// TestInject_AssignsAllFields verifies the round trip through the registry.
func TestInject_AssignsAllFields(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[screen](r, newScreenHelper))

	title := &label{text: "hello"}
	s := &screen{views: map[int]any{1: title, 2: 7}}

	require.NoError(t, r.Inject(s))
	assert.Same(t, title, s.title)
	assert.Equal(t, 7, s.count)
}

// TestInject_AllOrNothing verifies a failed lookup leaves every field untouched.
func TestInject_AllOrNothing(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[screen](r, newScreenHelper))

	// count resolves, title does not.
	s := &screen{views: map[int]any{2: 7}}

	err := r.Inject(s)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "github.com/sghaida/autobind/bind.screen", rerr.Type)
	assert.Equal(t, "github.com/sghaida/autobind/bind.screenAutobind", rerr.Helper)

	var missing MissingIDError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, MissingIDError{ID: 1, Field: "title"}, missing)

	assert.Nil(t, s.title)
	assert.Zero(t, s.count)
}

// TestInject_WrongType verifies a value of the wrong type is reported with both types.
func TestInject_WrongType(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[screen](r, newScreenHelper))

	s := &screen{views: map[int]any{1: "not a label", 2: 7}}

	err := r.Inject(s)
	var wrong WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "*bind.label", wrong.Want)
	assert.Equal(t, "string", wrong.Got)
	assert.Zero(t, s.count)
}

// TestInject_Failures verifies every failure surfaces as one *ResolutionError with the right cause.
func TestInject_Failures(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, Register[panicky](r, func() Helper { return panickyHelper{} }))
	require.NoError(t, Register[label](r, func() Helper { return nil }))

	tests := []struct {
		name   string
		target any
		want   error
	}{
		{name: "nil_target", target: nil, want: ErrNilTarget},
		{name: "nil_pointer", target: (*screen)(nil), want: ErrNotPointer},
		{name: "value_not_pointer", target: screen{}, want: ErrNotPointer},
		{name: "pointer_to_non_struct", target: new(int), want: ErrNotPointer},
		{name: "not_registered", target: &screen{}, want: ErrHelperNotFound},
		{name: "helper_panics", target: &panicky{}, want: ErrHelperPanic},
		{name: "factory_returns_nil", target: &label{}, want: ErrNilHelper},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := r.Inject(tt.target)
			var rerr *ResolutionError
			require.ErrorAs(t, err, &rerr)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

// TestInject_HelperTypeMismatch verifies a helper handed a foreign type refuses it.
func TestInject_HelperTypeMismatch(t *testing.T) {
	t.Parallel()

	err := screenHelper{}.Inject(&label{})
	var mismatch TargetTypeError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "*bind.label", mismatch.Got)
	assert.Contains(t, err.Error(), "cannot inject into *bind.label")
}

//
// -----------------------------------------------------------------------------
// Names
// -----------------------------------------------------------------------------

// TestHelperName verifies the naming contract shared with the generator.
func TestHelperName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "github.com/sghaida/autobind/bind.screenAutobind", HelperName(&screen{}))
	assert.Equal(t, "github.com/sghaida/autobind/bind.screenAutobind", HelperName(screen{}))
	assert.Equal(t, "", HelperName(nil))
	assert.Equal(t, "", HelperName(struct{}{}))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `bind: id 1001 for field "testTextView" not found`,
		MissingIDError{ID: 1001, Field: "testTextView"}.Error())
	assert.Equal(t, `bind: duplicate registration of "x.TAutobind"`,
		DuplicateRegistrationError{Helper: "x.TAutobind"}.Error())
	assert.Equal(t, "bind: inject x.T: bind: nil target",
		(&ResolutionError{Type: "x.T", Err: ErrNilTarget}).Error())
}
