package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/autobind/internal/config"
	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/emit"
	"github.com/sghaida/autobind/internal/pipeline"
)

func sample() *pipeline.Report {
	owner := discover.OwnerID{PkgPath: "example.com/proj/app", Name: "Dup"}
	return &pipeline.Report{
		Packages:  2,
		Groups:    3,
		Written:   []string{"/src/app/MainActivity_autobind.gen.go"},
		Unchanged: []string{"/src/app/Settings_autobind.gen.go"},
		Removed:   []string{"/src/app/Old_autobind.gen.go"},
		Skipped:   []string{"/src/app/zz_autobind_registry.gen.go"},
		Problems: []pipeline.Problem{
			{Owner: owner, Phase: pipeline.PhaseDiscover, Err: errors.New("field \"x\" bound twice")},
		},
	}
}

//
// -----------------------------------------------------------------------------
// text
// -----------------------------------------------------------------------------

func TestRender_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), Options{Format: config.FormatText, Base: "/src"}))

	assert.Equal(t, ""+
		"wrote   app/MainActivity_autobind.gen.go\n"+
		"removed app/Old_autobind.gen.go\n"+
		"skipped app/zz_autobind_registry.gen.go\n"+
		"error   [discover example.com/proj/app.Dup] field \"x\" bound twice\n"+
		"3 owners in 2 packages: 1 written, 1 unchanged, 1 removed, 1 problem\n",
		buf.String())
}

func TestRender_TextColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "/src/app/MainActivity_autobind.gen.go", "no base keeps absolute paths")
}

// TestRender_TextCheck verifies stale files are listed once, not again as problems.
func TestRender_TextCheck(t *testing.T) {
	t.Parallel()

	path := "/src/app/zz_autobind_registry.gen.go"
	rep := &pipeline.Report{
		Packages:  1,
		Groups:    1,
		Unchanged: []string{"/src/app/T_autobind.gen.go"},
		Stale:     []string{path},
		Problems: []pipeline.Problem{{
			Owner: discover.OwnerID{PkgPath: "example.com/proj/app"},
			Phase: pipeline.PhaseEmit,
			Path:  path,
			Err:   &emit.StaleError{Path: path, Missing: true},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, Options{Base: "/src", Check: true}))
	assert.Equal(t, ""+
		"stale   app/zz_autobind_registry.gen.go\n"+
		"1 owners in 1 packages: 1 up to date, 1 stale, 1 problem\n",
		buf.String())
}

//
// -----------------------------------------------------------------------------
// json / yaml
// -----------------------------------------------------------------------------

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample(), Options{Format: config.FormatJSON, Base: "/src"}))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.False(t, doc.OK)
	assert.Equal(t, 3, doc.Owners)
	assert.Equal(t, []string{"app/MainActivity_autobind.gen.go"}, doc.Written)
	require.Len(t, doc.Problems, 1)
	assert.Equal(t, Problem{Owner: "example.com/proj/app.Dup", Phase: "discover", Error: "field \"x\" bound twice"}, doc.Problems[0])
	assert.NotContains(t, buf.String(), "\"stale\"", "empty lists are omitted")
}

func TestRender_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &pipeline.Report{Packages: 1, Groups: 1, Unchanged: []string{"/a/T_autobind.gen.go"}}, Options{Format: config.FormatYAML}))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, doc.OK)
	assert.Equal(t, []string{"/a/T_autobind.gen.go"}, doc.Unchanged)
	assert.Contains(t, buf.String(), "ok: true\n")
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := Render(&bytes.Buffer{}, sample(), Options{Format: "xml"})
	assert.ErrorContains(t, err, `unsupported format "xml"`)
}

func TestNewDocument_PackageOwner(t *testing.T) {
	t.Parallel()

	rep := &pipeline.Report{Problems: []pipeline.Problem{{
		Owner: discover.OwnerID{PkgPath: "example.com/p"},
		Phase: pipeline.PhaseEmit,
		Path:  "/elsewhere/zz_autobind_registry.gen.go",
		Err:   errors.New("boom"),
	}}}
	doc := NewDocument(rep, "/src")
	require.Len(t, doc.Problems, 1)
	assert.Equal(t, "example.com/p", doc.Problems[0].Owner)
	assert.Equal(t, "/elsewhere/zz_autobind_registry.gen.go", doc.Problems[0].Path, "paths outside base stay absolute")
}
