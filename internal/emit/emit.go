// Package emit places generated artifacts.
//
// A Sink receives artifacts one at a time, possibly from many goroutines.
// Concurrent calls always target different files, so sinks only guard their
// own shared state.
package emit

import (
	"context"
	"errors"
	"strconv"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/synth"
)

// Outcome is what a sink did with one file.
type Outcome uint8

const (
	OutcomeWritten Outcome = iota + 1
	OutcomeUnchanged
	OutcomeRemoved
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeRemoved:
		return "removed"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Sink receives artifacts.
type Sink interface {
	// Emit places an artifact. It fails only that artifact.
	Emit(ctx context.Context, a synth.Artifact) (Outcome, error)

	// Prune removes a file the generator wrote earlier and no longer produces.
	Prune(ctx context.Context, owner discover.OwnerID, path string) (Outcome, error)
}

// ErrForeignFile is returned instead of overwriting or removing a file that
// does not carry the generator's header.
var ErrForeignFile = errors.New("emit: file was not written by autobind")

// WriteError is returned when an artifact cannot be placed. There is no retry.
type WriteError struct {
	Owner discover.OwnerID
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return "emit: write " + e.Path + " for " + e.Owner.String() + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// StaleError reports a file that does not match what the generator would
// write. It is only produced in check mode.
type StaleError struct {
	Owner discover.OwnerID
	Path  string

	// Missing is set when the file does not exist; Orphan when it exists but
	// would be removed.
	Missing bool
	Orphan  bool
}

func (e *StaleError) Error() string {
	switch {
	case e.Missing:
		return "emit: " + strconv.Quote(e.Path) + " is missing"
	case e.Orphan:
		return "emit: " + strconv.Quote(e.Path) + " is no longer generated"
	default:
		return "emit: " + strconv.Quote(e.Path) + " is out of date"
	}
}
