package pipeline

import (
	"errors"
	"sort"

	"github.com/sghaida/autobind/internal/discover"
)

// Phase is the step of a pass a problem came from.
type Phase uint8

const (
	PhaseDiscover Phase = iota + 1
	PhaseSynth
	PhaseEmit
	PhasePrune
)

func (p Phase) String() string {
	switch p {
	case PhaseDiscover:
		return "discover"
	case PhaseSynth:
		return "synth"
	case PhaseEmit:
		return "emit"
	case PhasePrune:
		return "prune"
	default:
		return "unknown"
	}
}

// Problem is one failure that did not stop the pass.
type Problem struct {
	Owner discover.OwnerID
	Phase Phase
	Path  string
	Err   error
}

// Report summarizes a pass. Every list is sorted.
type Report struct {
	Packages int
	Groups   int

	Written   []string
	Unchanged []string
	Removed   []string
	Stale     []string

	// Skipped lists registry files left untouched because an owner of their
	// package failed.
	Skipped []string

	Problems []Problem
}

// OK reports whether the pass had no problem.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Err joins every problem, in report order. It is nil for a clean pass.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Problems))
	for _, p := range r.Problems {
		errs = append(errs, p.Err)
	}
	return errors.Join(errs...)
}

func (r *Report) sort() {
	for _, s := range [][]string{r.Written, r.Unchanged, r.Removed, r.Stale, r.Skipped} {
		sort.Strings(s)
	}
	sort.SliceStable(r.Problems, func(i, j int) bool {
		a, b := r.Problems[i], r.Problems[j]
		if a.Owner != b.Owner {
			return a.Owner.Less(b.Owner)
		}
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Err.Error() < b.Err.Error()
	})
}
