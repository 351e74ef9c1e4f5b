package emit

import (
	"bytes"
	"context"
	"errors"
	"io/fs"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/synth"
)

// CheckSink compares artifacts with the files on disk and writes nothing.
// Every difference is reported as a *StaleError.
type CheckSink struct{}

func NewCheckSink() *CheckSink { return &CheckSink{} }

func (*CheckSink) Emit(ctx context.Context, a synth.Artifact) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := a.Path()

	cur, err := readFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return OutcomeStale, &StaleError{Owner: a.Owner, Path: path, Missing: true}
	case err != nil:
		return 0, &WriteError{Owner: a.Owner, Path: path, Err: err}
	case !bytes.Equal(cur, a.Source):
		return OutcomeStale, &StaleError{Owner: a.Owner, Path: path}
	default:
		return OutcomeUnchanged, nil
	}
}

func (*CheckSink) Prune(ctx context.Context, owner discover.OwnerID, path string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return OutcomeStale, &StaleError{Owner: owner, Path: path, Orphan: true}
}
