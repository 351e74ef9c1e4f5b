package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sghaida/autobind/internal/config"
	"github.com/sghaida/autobind/internal/emit"
	"github.com/sghaida/autobind/internal/flags/enum"
	logflags "github.com/sghaida/autobind/internal/flags/log"
	"github.com/sghaida/autobind/internal/pipeline"
	"github.com/sghaida/autobind/internal/report"
)

const (
	flagJobs          = "jobs"
	flagTag           = "tag"
	flagExclude       = "exclude"
	flagRuntimeImport = "runtime-import"
	flagKeepOrphans   = "keep-orphans"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir...]",
		Short: "Write binding helpers and registries",
		Long: "generate scans every directory recursively (\"./...\" is accepted) and writes one\n" +
			"<Owner>_autobind.gen.go per owner type plus one zz_autobind_registry.gen.go per package.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, args, false)
		},
	}
	passFlags(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir...]",
		Short: "Verify generated files are up to date without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, args, true)
		},
	}
	passFlags(cmd)
	return cmd
}

func passFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP(flagJobs, "j", 0, "concurrent synthesis workers (default GOMAXPROCS)")
	f.String(flagTag, "", "struct tag key holding ids (default \"bind\")")
	f.StringSlice(flagExclude, nil, "directories to skip: slash paths relative to a root or base-name patterns")
	f.String(flagRuntimeImport, "", "import path of the runtime package used by generated code")
	f.Bool(flagKeepOrphans, false, "keep generated files whose owner has no binding left")
}

// loadConfig reads the project file nearest to startDir and applies every
// flag the user set.
func loadConfig(cmd *cobra.Command, startDir string) (config.Config, error) {
	explicit, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Discover(startDir, explicit)
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed(flagJobs) {
		if cfg.Generate.Jobs, err = fs.GetInt(flagJobs); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagTag) {
		if cfg.Generate.Tag, err = fs.GetString(flagTag); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagExclude) {
		if cfg.Generate.Exclude, err = fs.GetStringSlice(flagExclude); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagRuntimeImport) {
		if cfg.Generate.RuntimeImport, err = fs.GetString(flagRuntimeImport); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagKeepOrphans) {
		if cfg.Generate.KeepOrphans, err = fs.GetBool(flagKeepOrphans); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagReport) {
		if cfg.Report.Format, err = enum.Get(fs, flagReport); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed(flagColor) {
		if cfg.Report.Color, err = enum.Get(fs, flagColor); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runPass(cmd *cobra.Command, args []string, check bool) error {
	logger, err := logflags.GetBaseLogger(cmd)
	if err != nil {
		return err
	}
	start := "."
	if len(args) > 0 {
		start = strings.TrimSuffix(filepath.ToSlash(args[0]), "/...")
	}
	cfg, err := loadConfig(cmd, start)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}

	roots := args
	if len(roots) == 0 {
		roots = cfg.Generate.Roots
	}

	var sink emit.Sink = emit.NewFileSink()
	if check {
		sink = emit.NewCheckSink()
	}

	rep, err := pipeline.Run(cmd.Context(), pipeline.Options{
		Roots:         roots,
		Tag:           cfg.Generate.Tag,
		Exclude:       cfg.Generate.Exclude,
		RuntimeImport: cfg.Generate.RuntimeImport,
		Jobs:          cfg.Generate.Jobs,
		KeepOrphans:   cfg.Generate.KeepOrphans,
		Sink:          sink,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	base, _ := os.Getwd()
	out := cmd.OutOrStdout()
	if err := report.Render(out, rep, report.Options{
		Format: cfg.Report.Format,
		Color:  useColor(cfg.Report.Color, out),
		Base:   base,
		Check:  check,
	}); err != nil {
		return err
	}

	if !rep.OK() {
		return errProblems
	}
	return nil
}
