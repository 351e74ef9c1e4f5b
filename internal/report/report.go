// Package report renders a pipeline.Report for people (colored text) or for
// tools (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/autobind/internal/config"
	"github.com/sghaida/autobind/internal/pipeline"
)

// Options controls rendering.
type Options struct {
	// Format is one of config.FormatText, FormatJSON or FormatYAML.
	Format string

	// Color enables ANSI colors in the text format.
	Color bool

	// Base makes paths relative to it when set.
	Base string

	// Check renders the text summary of a check pass.
	Check bool
}

// Document is the machine readable form of a report.
type Document struct {
	OK        bool      `json:"ok" yaml:"ok"`
	Packages  int       `json:"packages" yaml:"packages"`
	Owners    int       `json:"owners" yaml:"owners"`
	Written   []string  `json:"written,omitempty" yaml:"written,omitempty"`
	Unchanged []string  `json:"unchanged,omitempty" yaml:"unchanged,omitempty"`
	Removed   []string  `json:"removed,omitempty" yaml:"removed,omitempty"`
	Stale     []string  `json:"stale,omitempty" yaml:"stale,omitempty"`
	Skipped   []string  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Problems  []Problem `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type Problem struct {
	Owner string `json:"owner" yaml:"owner"`
	Phase string `json:"phase" yaml:"phase"`
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Error string `json:"error" yaml:"error"`
}

// NewDocument converts rep, rewriting paths against base when it is set.
func NewDocument(rep *pipeline.Report, base string) Document {
	rel := func(paths []string) []string {
		if len(paths) == 0 {
			return nil
		}
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = relPath(base, p)
		}
		return out
	}

	doc := Document{
		OK:        rep.OK(),
		Packages:  rep.Packages,
		Owners:    rep.Groups,
		Written:   rel(rep.Written),
		Unchanged: rel(rep.Unchanged),
		Removed:   rel(rep.Removed),
		Stale:     rel(rep.Stale),
		Skipped:   rel(rep.Skipped),
	}
	for _, p := range rep.Problems {
		owner := p.Owner.String()
		if p.Owner.Name == "" {
			owner = p.Owner.PkgPath
		}
		doc.Problems = append(doc.Problems, Problem{
			Owner: owner,
			Phase: p.Phase.String(),
			Path:  relPath(base, p.Path),
			Error: p.Err.Error(),
		})
	}
	return doc
}

// Render writes rep to w in opts.Format.
func Render(w io.Writer, rep *pipeline.Report, opts Options) error {
	doc := NewDocument(rep, opts.Base)
	switch opts.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatText, "":
		return renderText(w, doc, opts)
	default:
		return fmt.Errorf("report: unsupported format %q", opts.Format)
	}
}

type palette struct {
	ok, warn, bad, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		bad:  color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func renderText(w io.Writer, doc Document, opts Options) error {
	pal := newPalette(opts.Color)
	var b strings.Builder

	for _, p := range doc.Written {
		fmt.Fprintf(&b, "%s %s\n", pal.ok.Sprint("wrote  "), p)
	}
	for _, p := range doc.Removed {
		fmt.Fprintf(&b, "%s %s\n", pal.ok.Sprint("removed"), p)
	}
	for _, p := range doc.Stale {
		fmt.Fprintf(&b, "%s %s\n", pal.warn.Sprint("stale  "), p)
	}
	for _, p := range doc.Skipped {
		fmt.Fprintf(&b, "%s %s\n", pal.warn.Sprint("skipped"), p)
	}
	for _, p := range doc.Problems {
		if isStale(doc, p.Path) {
			continue
		}
		fmt.Fprintf(&b, "%s %s %s\n", pal.bad.Sprint("error  "), pal.dim.Sprintf("[%s %s]", p.Phase, p.Owner), p.Error)
	}

	summary := fmt.Sprintf("%d owners in %d packages: %d written, %d unchanged, %d removed",
		doc.Owners, doc.Packages, len(doc.Written), len(doc.Unchanged), len(doc.Removed))
	if opts.Check {
		summary = fmt.Sprintf("%d owners in %d packages: %d up to date, %d stale",
			doc.Owners, doc.Packages, len(doc.Unchanged), len(doc.Stale))
	}
	if n := len(doc.Problems); n > 0 {
		summary += ", " + pal.bad.Sprintf("%d %s", n, plural(n, "problem", "problems"))
	}
	b.WriteString(summary + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// isStale reports whether path is already listed as stale, so its problem
// line would only repeat it.
func isStale(doc Document, path string) bool {
	for _, s := range doc.Stale {
		if s == path {
			return true
		}
	}
	return false
}

func relPath(base, p string) string {
	if base == "" || p == "" {
		return p
	}
	if r, err := filepath.Rel(base, p); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return p
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
