// Package testutil holds the fixtures shared by package tests: a temporary
// Go module to write sources into, and a few assertions on generated text.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TB is the subset of testing.TB the helpers need, so tests can check the
// helpers themselves with a panicking fake.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// Module is a throwaway Go module rooted in a temporary directory.
type Module struct {
	t    *testing.T
	Dir  string
	Path string
}

// NewModule creates a module with import path modPath.
func NewModule(t *testing.T, modPath string) *Module {
	t.Helper()
	m := &Module{t: t, Dir: t.TempDir(), Path: modPath}
	m.Write("go.mod", "module "+modPath+"\n\ngo 1.22\n")
	return m
}

// Write creates rel (slash separated) with content and returns its full path.
func (m *Module) Write(rel, content string) string {
	m.t.Helper()
	path := m.Abs(rel)
	MustWriteFile(m.t, path, content)
	return path
}

// Abs returns the full path of rel.
func (m *Module) Abs(rel string) string {
	return filepath.Join(m.Dir, filepath.FromSlash(rel))
}

// Read returns the content of rel.
func (m *Module) Read(rel string) string {
	m.t.Helper()
	return MustReadString(m.t, m.Abs(rel))
}

// Exists reports whether rel exists.
func (m *Module) Exists(rel string) bool {
	_, err := os.Stat(m.Abs(rel))
	return err == nil
}

// ChmodNoWrite makes dir read-only for the rest of the test.
func ChmodNoWrite(t TB, dir string) {
	t.Helper()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
}

func MustWriteFile(t TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func MustMkdirAll(t TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func MustReadString(t TB, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// AssertContainsInOrder fails unless every part occurs in s, each after the previous one.
func AssertContainsInOrder(t TB, s string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(s[pos:], p)
		if i < 0 {
			t.Fatalf("expected to find %q after pos=%d", p, pos)
		}
		pos += i + len(p)
	}
}

// FatalTB turns Fatalf into a panic so helper failures can be asserted.
type FatalTB struct {
	testing.TB
}

func (f FatalTB) Helper() {}

func (f FatalTB) Cleanup(func()) {}

func (f FatalTB) Fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

// AssertPanicContains fails unless fn panics with a message containing wantSubstr.
func AssertPanicContains(t TB, fn func(), wantSubstr string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", wantSubstr)
		}
		msg := fmt.Sprint(r)
		if !strings.Contains(msg, wantSubstr) {
			t.Fatalf("panic=%q want contains %q", msg, wantSubstr)
		}
	}()
	fn()
}
