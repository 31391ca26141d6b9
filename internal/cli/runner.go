package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/gateway"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options wire the runner to its environment. Zero values mean the
// process's own stdio.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

const defaultBaseURL = "http://127.0.0.1:8080"

// app is the per-invocation state shared by subcommands.
type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	closer io.Closer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	a := &app{v: viper.New(), stdin: opt.Stdin, stdout: opt.Stdout, stderr: opt.Stderr, log: slog.Default()}
	if a.stdin == nil {
		a.stdin = os.Stdin
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	ui.Stdout, ui.Stderr = a.stdout, a.stderr
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(err.Error())
	var he *hintError
	if errors.As(err, &he) {
		ui.Hint(he.hint)
	}
	code := exitCode(err)
	if code == 2 {
		fmt.Fprintln(a.stderr)
		fmt.Fprint(a.stderr, root.UsageString())
	}
	return code
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tada",
		Short: "tada - a tiny client for a remote todo list",
		Long: `tada talks to an items API (GET/POST /items, PUT/DELETE /items/{id}).

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (TADA_BASE_URL, TADA_TOKEN, ...)
  3. Config file (./tada.yaml or ~/.tada/tada.yaml, or --config)
  4. Defaults

Examples:
  tada serve --backend bolt &
  tada add --user 1 "Buy milk"
  tada ls --group
  tada edit 1 --title "Buy oat milk"
  tada rm 1
  tada tui`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usagef("missing subcommand")
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./tada.yaml, ~/.tada/tada.yaml)")
	pf.String("base-url", defaultBaseURL, "items API base URL")
	pf.String("token", "", "bearer token (overrides stored credentials)")
	pf.Duration("timeout", 10*time.Second, "per-request timeout")
	pf.String("log-level", "warn", "log level: debug|info|warn|error")
	pf.String("log-file", "", "log file (default $XDG_CACHE_HOME/tada/tada.log)")
	pf.String("theme", "classic", "output theme: classic|neon|mono")
	pf.Bool("no-color", false, "disable colors")
	pf.Bool("color", false, "force colors even when not a terminal")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.lsCommand(),
		a.addCommand(),
		a.editCommand(),
		a.rmCommand(),
		a.tuiCommand(),
		a.serveCommand(),
		a.authCommand(),
		a.networksCommand(),
	)
	return root
}

// setup reads config and environment, then starts logging and styling.
func (a *app) setup() error {
	v := a.v
	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("tada")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tada")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	logger, closer, err := initLogging(v.GetString("log-file"), v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log, a.closer = logger, closer
	a.log.Debug("config loaded", "config_file", v.ConfigFileUsed(), "base_url", v.GetString("base-url"))

	ui.SetColorForcing(v.GetBool("color"), v.GetBool("no-color"))
	ui.SetTheme(v.GetString("theme"))
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// token prefers the configured token and falls back to stored credentials.
func (a *app) token() (string, error) {
	if t := strings.TrimSpace(a.v.GetString("token")); t != "" {
		return t, nil
	}
	return auth.Credentials{}.Token()
}

// container wires a state container to the configured gateway.
func (a *app) container() (*state.Container, error) {
	tok, err := a.token()
	if err != nil {
		return nil, err
	}
	gw, err := gateway.NewHTTP(gateway.Options{
		BaseURL: a.v.GetString("base-url"),
		Token:   tok,
		Timeout: a.v.GetDuration("timeout"),
		Logger:  a.log,
	})
	if err != nil {
		return nil, usagef("%v", err)
	}
	return state.New(gw, a.log), nil
}
