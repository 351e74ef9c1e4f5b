package emit

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/synth"
)

// MemorySink keeps artifacts in memory, keyed by path.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{files: map[string][]byte{}}
}

// Seed stores content at path as if a previous pass had written it.
func (s *MemorySink) Seed(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = bytes.Clone(content)
}

func (s *MemorySink) Emit(ctx context.Context, a synth.Artifact) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := a.Path()
	if cur, ok := s.files[path]; ok && bytes.Equal(cur, a.Source) {
		return OutcomeUnchanged, nil
	}
	s.files[path] = bytes.Clone(a.Source)
	return OutcomeWritten, nil
}

func (s *MemorySink) Prune(ctx context.Context, _ discover.OwnerID, path string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, path)
	return OutcomeRemoved, nil
}

// Get returns the content stored at path.
func (s *MemorySink) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[path]
	return bytes.Clone(b), ok
}

// Paths returns every stored path, sorted.
func (s *MemorySink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
