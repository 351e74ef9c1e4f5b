package emit

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/naming"
	"github.com/sghaida/autobind/internal/synth"
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	readFile       = os.ReadFile
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// DefaultPerm is the mode of written files.
const DefaultPerm fs.FileMode = 0o644

// FileSink writes artifacts next to their owners.
type FileSink struct {
	Perm fs.FileMode
}

// NewFileSink returns a sink writing files with DefaultPerm.
func NewFileSink() *FileSink { return &FileSink{Perm: DefaultPerm} }

// Emit writes a.Source to a.Path() unless the file already holds exactly
// those bytes. Files without the generator header are never overwritten.
func (s *FileSink) Emit(ctx context.Context, a synth.Artifact) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := a.Path()

	cur, err := readFile(path)
	switch {
	case err == nil:
		if bytes.Equal(cur, a.Source) {
			return OutcomeUnchanged, nil
		}
		if !naming.IsGenerated(cur) {
			return 0, &WriteError{Owner: a.Owner, Path: path, Err: ErrForeignFile}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return 0, &WriteError{Owner: a.Owner, Path: path, Err: err}
	}

	perm := s.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	if err := writeFileAtomic(path, a.Source, perm); err != nil {
		return 0, &WriteError{Owner: a.Owner, Path: path, Err: err}
	}
	return OutcomeWritten, nil
}

// Prune removes path if it carries the generator header.
func (s *FileSink) Prune(ctx context.Context, owner discover.OwnerID, path string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cur, err := readFile(path)
	if err != nil {
		return 0, &WriteError{Owner: owner, Path: path, Err: err}
	}
	if !naming.IsGenerated(cur) {
		return 0, &WriteError{Owner: owner, Path: path, Err: ErrForeignFile}
	}
	if err := removeFile(path); err != nil {
		return 0, &WriteError{Owner: owner, Path: path, Err: err}
	}
	return OutcomeRemoved, nil
}

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target, so readers see either the old or the new content.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
