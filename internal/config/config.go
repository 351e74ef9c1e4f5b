// Package config loads autobind.toml, the optional project file holding
// defaults for the command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ygrebnov/errorc"

	"github.com/sghaida/autobind/internal/directive"
	"github.com/sghaida/autobind/internal/synth"
)

// FileName is the project file looked up from the working directory upwards.
const FileName = "autobind.toml"

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes.
const (
	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

var (
	Formats    = []string{FormatText, FormatJSON, FormatYAML}
	ColorModes = []string{ColorAuto, ColorOn, ColorOff}
)

var (
	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("config: invalid value")

	// ErrUnknownKey is returned when the file holds keys autobind does not read.
	ErrUnknownKey = errors.New("config: unknown key")
)

// Structured error field keys.
const (
	FieldKey   = "config.key"
	FieldValue = "config.value"
	FieldPath  = "config.path"
)

type Config struct {
	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`

	Generate Generate `toml:"generate"`
	Report   Report   `toml:"report"`
}

type Generate struct {
	// Roots are scanned when no directory is given on the command line.
	// Relative roots are resolved against the directory holding the file.
	Roots         []string `toml:"roots"`
	Tag           string   `toml:"tag"`
	Jobs          int      `toml:"jobs"`
	Exclude       []string `toml:"exclude"`
	RuntimeImport string   `toml:"runtime_import"`
	KeepOrphans   bool     `toml:"keep_orphans"`
}

type Report struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Generate: Generate{
			Tag:           directive.DefaultTag,
			RuntimeImport: synth.DefaultRuntimeImport,
		},
		Report: Report{
			Format: FormatText,
			Color:  ColorAuto,
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, errorc.With(ErrUnknownKey,
			errorc.Field(FieldPath, path),
			errorc.Field(FieldKey, strings.Join(keys, ",")),
		)
	}

	cfg.Path = path
	base := filepath.Dir(path)
	for i, r := range cfg.Generate.Roots {
		if !filepath.IsAbs(r) {
			cfg.Generate.Roots[i] = filepath.Join(base, filepath.FromSlash(r))
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest FileName above startDir, or returns Default.
// An explicit path skips the lookup and must exist.
func Discover(startDir, explicit string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every value a flag could also have set.
func (c Config) Validate() error {
	var errs []error
	invalid := func(key, value string) {
		errs = append(errs, errorc.With(ErrInvalid,
			errorc.Field(FieldKey, key),
			errorc.Field(FieldValue, value),
		))
	}

	if !validTag(c.Generate.Tag) {
		invalid("generate.tag", c.Generate.Tag)
	}
	if c.Generate.Jobs < 0 {
		invalid("generate.jobs", fmt.Sprint(c.Generate.Jobs))
	}
	if strings.TrimSpace(c.Generate.RuntimeImport) == "" || strings.ContainsAny(c.Generate.RuntimeImport, " \t\"\\") {
		invalid("generate.runtime_import", c.Generate.RuntimeImport)
	}
	for _, ex := range c.Generate.Exclude {
		if strings.TrimSpace(ex) == "" {
			invalid("generate.exclude", ex)
		}
	}
	if !slices.Contains(Formats, c.Report.Format) {
		invalid("report.format", c.Report.Format)
	}
	if !slices.Contains(ColorModes, c.Report.Color) {
		invalid("report.color", c.Report.Color)
	}
	return errors.Join(errs...)
}

// validTag follows the struct tag key grammar of reflect.StructTag.Get.
func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if r <= ' ' || r == ':' || r == '"' || r == 0x7f {
			return false
		}
	}
	return true
}
