// Package version holds build metadata of the autobind command.
package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the command. When empty, the module
	// version recorded by the Go toolchain is used.
	Version = ""

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
)

// Info is the resolved build metadata.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get resolves Info from the ldflags variables, falling back to the build
// information embedded in the binary.
func Get() Info {
	info := Info{
		Version:   strings.TrimSpace(Version),
		GitCommit: strings.TrimSpace(GitCommit),
		BuildDate: strings.TrimSpace(BuildDate),
	}
	if bi, ok := readBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// Print writes info as one line, colored when colored is set.
func Print(w io.Writer, info Info, colored bool) error {
	name, ver := *nameColor, *versionColor
	if colored {
		name.EnableColor()
		ver.EnableColor()
	} else {
		name.DisableColor()
		ver.DisableColor()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", name.Sprint("autobind"), ver.Sprint(info.Version))
	if info.GitCommit != "" {
		fmt.Fprintf(&b, " (%s", shortCommit(info.GitCommit))
		if info.BuildDate != "" {
			fmt.Fprintf(&b, ", %s", info.BuildDate)
		}
		b.WriteString(")")
	}
	if info.GoVersion != "" {
		fmt.Fprintf(&b, " %s", info.GoVersion)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
