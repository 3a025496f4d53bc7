// Package cli turns command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/substrate/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// layerFlag appends a LayerRef of a fixed kind each time its flag appears,
// preserving overall flag order across the four layer flags.
type layerFlag struct {
	kind app.LayerKind
	refs *[]app.LayerRef
}

func (f *layerFlag) String() string { return "" }

func (f *layerFlag) Set(value string) error {
	*f.refs = append(*f.refs, app.LayerRef{Kind: f.kind, Value: value})
	return nil
}

// stringList collects repeatable string flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// varMap collects repeatable name=value flags.
type varMap map[string]string

func (m varMap) String() string { return "" }

func (m varMap) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	if _, dup := m[name]; dup {
		return fmt.Errorf("duplicate -var for %q", name)
	}
	m[name] = val
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("substrate", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
substrate - a layered configuration-resolution engine.

Usage:
  substrate [options] MANIFEST_PATH

Arguments:
  MANIFEST_PATH
    Path to a single .hcl variable manifest or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	var refs []app.LayerRef
	flagSet.Var(&layerFlag{kind: app.KindHCL, refs: &refs}, "hcl", "Add an HCL file layer (repeatable; flag order is priority order).")
	flagSet.Var(&layerFlag{kind: app.KindYAML, refs: &refs}, "yaml", "Add a YAML file layer (repeatable).")
	flagSet.Var(&layerFlag{kind: app.KindTOML, refs: &refs}, "toml", "Add a TOML file layer (repeatable).")
	flagSet.Var(&layerFlag{kind: app.KindEnv, refs: &refs}, "env-prefix", "Add an environment layer scoped to the given prefix (repeatable).")

	overrides := varMap{}
	flagSet.Var(overrides, "var", "Override a variable as name=value (repeatable, highest priority).")

	var required stringList
	flagSet.Var(&required, "require", "Require a variable by name (repeatable; default is every declared variable).")

	manifestFlag := flagSet.String("manifest", "", "Path to the variable manifest file or directory.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	watchFlag := flagSet.Bool("watch", false, "Re-resolve when a file layer changes.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *manifestFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Manifest path determined.", "path", path)

	if path == "" {
		slog.Debug("No manifest path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ManifestPath: path,
		Layers:       refs,
		Overrides:    overrides,
		Required:     required,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Watch:        *watchFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
