package enum

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { New() })

	f := New("auto", "on", "off")
	assert.Equal(t, "auto", f.String())
	assert.Equal(t, "enum", f.Type())
}

func TestFlag_Set(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
		want    string
	}{
		{name: "valid value", value: "on", want: "on"},
		{name: "invalid value", value: "sometimes", wantErr: true, want: "auto"},
		{name: "case sensitive", value: "ON", wantErr: true, want: "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := New("auto", "on", "off")
			err := f.Set(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "auto|on|off")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestVarAndGet(t *testing.T) {
	t.Parallel()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Var(fs, "color", []string{"auto", "on", "off"}, "colorize output")
	VarP(fs, "report", "r", []string{"text", "json"}, "report format")
	fs.String("plain", "", "")

	require.NoError(t, fs.Parse([]string{"--color", "off", "-r", "json"}))

	v, err := Get(fs, "color")
	require.NoError(t, err)
	assert.Equal(t, "off", v)

	v, err = Get(fs, "report")
	require.NoError(t, err)
	assert.Equal(t, "json", v)
	assert.Equal(t, "r", fs.Lookup("report").Shorthand)

	_, err = Get(fs, "missing")
	assert.Error(t, err)
	_, err = Get(fs, "plain")
	assert.Error(t, err)

	assert.Error(t, fs.Parse([]string{"--color", "bright"}))
}
