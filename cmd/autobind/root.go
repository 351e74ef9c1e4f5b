package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/autobind/internal/config"
	"github.com/sghaida/autobind/internal/flags/enum"
	logflags "github.com/sghaida/autobind/internal/flags/log"
	"github.com/sghaida/autobind/internal/version"
)

const (
	flagConfig = "config"
	flagColor  = "color"
	flagReport = "report"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autobind",
		Short:         "Generate field binding helpers for Go struct types",
		Long:          "autobind finds struct fields tagged bind:\"<id>\" or marked //autobind:id <id> and generates\na helper per owner type that resolves every bound field through a Finder.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "path to "+config.FileName+" (default: nearest one above the working directory)")
	enum.Var(pf, flagColor, config.ColorModes, "colorize the report")
	enum.Var(pf, flagReport, config.Formats, "report format")
	logflags.RegisterLoggingFlags(pf)

	root.AddCommand(newGenerateCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := enum.Get(cmd.Flags(), flagReport)
			if err != nil {
				return err
			}
			info := version.Get()
			out := cmd.OutOrStdout()

			switch format {
			case config.FormatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case config.FormatYAML:
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			}
			colorMode, err := enum.Get(cmd.Flags(), flagColor)
			if err != nil {
				return err
			}
			return version.Print(out, info, useColor(colorMode, out))
		},
	}
}

// useColor resolves a color mode for w. auto colors terminals unless
// NO_COLOR is set.
func useColor(mode string, w any) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
