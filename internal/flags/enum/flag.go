// Package enum provides a pflag value restricted to a fixed set of options.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// Flag is a one-of string value. The first option is the default.
type Flag struct {
	value   string
	options []string
}

var _ pflag.Value = (*Flag)(nil)

// New returns a Flag over options. It panics when options is empty.
func New(options ...string) *Flag {
	if len(options) == 0 {
		panic("enum: at least one option is required")
	}
	return &Flag{value: options[0], options: options}
}

func (f *Flag) String() string { return f.value }

func (f *Flag) Set(v string) error {
	if !slices.Contains(f.options, v) {
		return fmt.Errorf("must be one of %s", strings.Join(f.options, "|"))
	}
	f.value = v
	return nil
}

func (f *Flag) Type() string { return "enum" }

// Var defines an enum flag on fs.
func Var(fs *pflag.FlagSet, name string, options []string, usage string) {
	VarP(fs, name, "", options, usage)
}

// VarP is like Var, but accepts a shorthand letter.
func VarP(fs *pflag.FlagSet, name, shorthand string, options []string, usage string) {
	fs.VarP(New(options...), name, shorthand, fmt.Sprintf("%s (one of %s)", usage, strings.Join(options, "|")))
}

// Get returns the value of the enum flag name.
func Get(fs *pflag.FlagSet, name string) (string, error) {
	fl := fs.Lookup(name)
	if fl == nil {
		return "", fmt.Errorf("flag %q not defined", name)
	}
	ef, ok := fl.Value.(*Flag)
	if !ok {
		return "", fmt.Errorf("flag %q is not an enum flag", name)
	}
	return ef.String(), nil
}
