// Package cmd implements the marketplace CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/marketplace/internal/command"
	"github.com/donaldgifford/marketplace/internal/config"
	"github.com/donaldgifford/marketplace/pkg/logger"
	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitArgument = 2
)

const (
	envPrefix     = "MARKETPLACE"
	cliLogLevel   = "warn"
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagTimeout   = "timeout"
	flagDescribe  = "describe"
	defaultLogFmt = "text"
)

// exitError carries a process exit code out of RunE. A nil err means the
// output has already been written.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// app holds the streams and settings shared by every subcommand.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	v        *viper.Viper
	registry *command.Registry

	cfg       *config.Config
	cfgLoaded bool
}

func newApp(stdout, stderr io.Writer, getenv func(string) string) *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &app{
		stdout:   stdout,
		stderr:   stderr,
		getenv:   getenv,
		v:        v,
		registry: command.Builtin(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "marketplace",
		Short: "Command-line client for the marketplace REST API",
		Long: "marketplace exposes the marketplace REST API (stores, items, transactions,\n" +
			"API keys, deposits, disputes and admin settings) as subcommands.\n" +
			"Every command prints a JSON envelope with status success or error.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &command.ArgumentError{Message: "Unknown command: " + args[0]}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if describe, _ := cmd.Flags().GetBool(flagDescribe); describe {
				return writeJSON(a.stdout, a.registry.Describe())
			}
			cmd.SetOut(a.stderr)
			_ = cmd.Help()
			return &exitError{code: ExitError}
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &command.ArgumentError{Message: err.Error(), Err: err}
	})

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "config file (YAML); env "+envPrefix+"_CONFIG")
	pf.String(flagLogLevel, "", "log level: debug, info, warn, error (default warn for commands)")
	pf.String(flagLogFormat, "", "log format: text, json, pretty")
	pf.Duration(flagTimeout, 0, "marketplace request timeout (default from config, 30s)")
	root.Flags().Bool(flagDescribe, false, "print command metadata as JSON and exit")

	for _, name := range []string{flagConfig, flagLogLevel, flagLogFormat, flagTimeout} {
		cobra.CheckErr(a.v.BindPFlag(name, pf.Lookup(name)))
	}

	for _, desc := range a.registry.Commands() {
		root.AddCommand(a.dispatchCommand(desc))
	}
	root.AddCommand(a.serveCommand())
	root.AddCommand(a.mcpCommand())
	root.AddCommand(versionCommand(a))

	return root
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return newRootCmd(newApp(os.Stdout, os.Stderr, os.Getenv))
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	a := newApp(os.Stdout, os.Stderr, os.Getenv)
	return a.execute(newRootCmd(a))
}

func (a *app) execute(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(a.stderr, "Error:", ee.err)
		}
		return ee.code
	}

	var argErr *command.ArgumentError
	if !errors.As(err, &argErr) {
		argErr = &command.ArgumentError{Message: err.Error(), Err: err}
	}
	env := command.Failure(argErr)
	_ = writeJSON(a.stdout, env)
	_ = writeJSON(a.stderr, env)
	return ExitArgument
}

func (a *app) loadConfig() error {
	path := a.v.GetString(flagConfig)
	if path == "" {
		a.cfg = config.Default()
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return &exitError{code: ExitError, err: fmt.Errorf("loading config: %w", err)}
	}
	a.cfg, a.cfgLoaded = cfg, true
	return nil
}

// logger resolves the level as flag or env, then the config file, then
// fallback.
func (a *app) logger(fallback string) *slog.Logger {
	level := a.v.GetString(flagLogLevel)
	if level == "" && a.cfgLoaded {
		level = a.cfg.Logging.Level
	}
	if level == "" {
		level = fallback
	}

	format := a.v.GetString(flagLogFormat)
	if format == "" && a.cfgLoaded {
		format = a.cfg.Logging.Format
	}
	if format == "" {
		format = defaultLogFmt
	}

	return logger.NewWithWriter(a.stderr, level, format)
}

func (a *app) timeout() time.Duration {
	if d := a.v.GetDuration(flagTimeout); d > 0 {
		return d
	}
	return a.cfg.Marketplace.Timeout
}

func (a *app) clientOptions() []marketplace.Option {
	opts := []marketplace.Option{marketplace.WithTimeout(a.timeout())}
	if rl := a.cfg.Marketplace.RateLimit; rl.PerSecond > 0 {
		opts = append(opts, marketplace.WithRateLimit(rate.NewLimiter(rate.Limit(rl.PerSecond), rl.Burst)))
	}
	return opts
}

func (a *app) dispatcher(log *slog.Logger) *command.Dispatcher {
	return command.NewDispatcher(
		command.WithRegistry(a.registry),
		command.WithGetenv(a.getenv),
		command.WithDefaultBaseURL(a.cfg.Marketplace.BaseURL),
		command.WithClientOptions(a.clientOptions()...),
		command.WithLogger(log),
	)
}

// normalizeFlag accepts parameter names in their underscore form.
func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
