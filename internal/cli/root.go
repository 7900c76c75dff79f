// Package cli implements the tablectl command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tablecontrols/internal/paths"
	"github.com/mesh-intelligence/tablecontrols/internal/sqlite"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state loaded before a subcommand runs.
type app struct {
	configDir string
	dataDir   string
	verbose   bool

	resolvedConfigDir string
	config            *viper.Viper
	logger            *slog.Logger
}

// NewRootCmd creates the top-level "tablectl" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tablectl",
		Short: "Filter, sort, page and select rows of stored datasets",
		Long: "tablectl loads JSON records into named datasets and lists them through\n" +
			"persisted table controls: filters, sort, pagination and selection.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newLoadCmd(),
		a.newExportCmd(),
		a.newListCmd(),
		a.newStateCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return exitCode(err)
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.resolvedConfigDir = configDir
	a.config = v
	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, v.GetString(cfgKeyLogLevel))
	a.logger.Debug("loaded configuration", "config_dir", configDir, "file", v.ConfigFileUsed())
	return nil
}

// newLogger builds the stderr text logger. --verbose forces debug; otherwise
// log_level from config applies, defaulting to warn.
func newLogger(w io.Writer, verbose bool, level string) *slog.Logger {
	lvl := slog.LevelWarn
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = slog.LevelWarn
		}
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// dataDirPath resolves the data directory: --data-dir, TABLECTL_DATA_DIR,
// data_dir from config, then the platform default.
func (a *app) dataDirPath() (string, error) {
	dir, err := paths.ResolveDataDir(a.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}

// attachBackend opens the configured storage backend. The caller must
// Detach it.
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := a.dataDirPath()
	if err != nil {
		return nil, err
	}
	cfg := types.Config{
		Backend: a.config.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	backend := sqlite.NewBackend(a.logger)
	if err := backend.Attach(cfg); err != nil {
		if errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrBackendUnknown) {
			return nil, userErrorf("config backend %q: %w", cfg.Backend, err)
		}
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// userError marks failures caused by input rather than the system.
type userError struct {
	err error
}

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue userError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUserError
	}
	return exitSysError
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}
