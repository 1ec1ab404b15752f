// Package cli implements the modelkit command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/modelkit/internal/ctxlog"
	"github.com/mesh-intelligence/modelkit/internal/paths"
)

// Version is the modelkit version, overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the per-invocation configuration.
type app struct {
	configDir string
	dataDir   string
	format    string
	logLevel  string
	jsonMode  bool

	cfg    *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level "modelkit" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "modelkit",
		Short: "Configure, persist and fit parameterized models",
		Long: "modelkit manages model parameters and hyper-parameters against typed schemas,\n" +
			"saves and loads them by tag, and fits the built-in estimators on CSV data.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.modelkit)")
	root.PersistentFlags().StringVar(&a.format, "format", "", "artifact format: json or msgpack (default from config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newKindsCmd())
	root.AddCommand(a.newSchemaCmd())
	root.AddCommand(a.newSaveCmd())
	root.AddCommand(a.newShowCmd())
	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newFitCmd())
	root.AddCommand(a.newPredictCmd())
	root.AddCommand(a.newFetchCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes args and returns the process exit code: 0 on success, 1 for
// user errors (validation, conflicts, missing data, bad flags) and 2 for
// system errors.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "modelkit:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup loads config.yaml and installs the logger on the command context.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysErr(err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysErr(err)
	}
	a.configDir = configDir
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	a.logger = ctxlog.New(level, cfg.GetString(cfgKeyLogFormat), cmd.ErrOrStderr())
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), a.logger))
	a.logger.Debug("config loaded", "config_dir", configDir, "file", cfg.ConfigFileUsed())
	return nil
}

// resolveDataDir applies flag > config.yaml data_dir > MODELKIT_DATA_DIR > default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
}

// formatName returns the --format flag or the configured format.
func (a *app) formatName() string {
	if a.format != "" {
		return a.format
	}
	return a.cfg.GetString(cfgKeyFormat)
}
