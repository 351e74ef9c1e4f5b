// Package log builds the slog logger of the autobind command from its
// --logformat, --loglevel and --logoutput flags.
package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sghaida/autobind/internal/flags/enum"
)

const (
	FormatFlagName = "logformat"

	FormatText = "text"
	FormatJSON = "json"
)

const (
	LevelFlagName = "loglevel"

	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const (
	OutputFlagName = "logoutput"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// RegisterLoggingFlags adds the logging flags to flagset. Defaults are text,
// warn and stderr, so a plain run prints only its report:
//
//	--loglevel debug     # one line per owner and per written file
//	--loglevel info      # adds the pass summary
//	--logformat json     # machine readable logs
func RegisterLoggingFlags(flagset *pflag.FlagSet) {
	enum.Var(flagset, FormatFlagName, []string{
		FormatText,
		FormatJSON,
	}, "log format")

	enum.Var(flagset, LevelFlagName, []string{
		LevelWarn,
		LevelDebug,
		LevelInfo,
		LevelError,
	}, "log level")

	enum.Var(flagset, OutputFlagName, []string{
		OutputStderr,
		OutputStdout,
	}, "log destination")
}

// GetBaseLogger returns a logger configured from the flags of cmd.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := levelFromCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to get log level: %w", err)
	}

	format, err := enum.Get(cmd.Flags(), FormatFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log format from the command flag: %w", err)
	}

	output, err := enum.Get(cmd.Flags(), OutputFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log output from the command flag: %w", err)
	}

	var w io.Writer
	switch output {
	case OutputStdout:
		w = cmd.OutOrStdout()
	default:
		w = cmd.ErrOrStderr()
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	return slog.New(handler), nil
}

func levelFromCommand(cmd *cobra.Command) (slog.Level, error) {
	v, err := enum.Get(cmd.Flags(), LevelFlagName)
	if err != nil {
		return slog.LevelWarn, err
	}
	switch v {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", v)
	}
}
