// Package cli implements the routenest command-line interface: trip, stop,
// route and itinerary commands against the RouteNest API, the terminal
// client and the development mock server.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/api"
	"github.com/harrysoftwarecorp/route-nest/internal/config"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/paths"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	apiURL    string
	logLevel  string
	jsonMode  bool
}

// app is shared by every command of one invocation.
type app struct {
	flags  rootFlags
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
}

// globalBindings maps config keys onto the persistent flags overriding them.
var globalBindings = config.FlagBindings{
	config.KeyAPIBaseURL: "api-url",
	config.KeyLogLevel:   "log-level",
}

// NewRootCmd creates the top-level "routenest" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   paths.AppName,
		Short: "Plan trips, stops and routes from the terminal",
		Long: `RouteNest plans multi-stop trips. Run without arguments for the
terminal client, or use the subcommands to script the RouteNest API.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          userArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, "")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "RouteNest API base URL")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTripsCmd(a))
	root.AddCommand(newStopsCmd(a))
	root.AddCommand(newRoutesCmd(a))
	root.AddCommand(newItinerariesCmd(a))
	root.AddCommand(newPlacesCmd(a))
	root.AddCommand(newTUICmd(a))
	root.AddCommand(newMockCmd(a))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return exitCode(err)
}

// exitCode separates mistakes the user can fix from failures of the system.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrInvalidRequest),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrUnauthorized):
		return exitUserError
	}
	return exitSysError
}

// usageError marks bad arguments or flags.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// userArgs wraps a cobra argument validator so its failures exit as user
// errors.
func userArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// usagef builds a usageError.
func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// setup loads the configuration and builds the stderr logger. The tui
// command replaces the logger with one writing to the log file.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(dir, cmd.Flags(), globalBindings)
	if err != nil {
		return usageError{err}
	}
	if err := cfg.Validate(); err != nil {
		return usagef("config: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Output: cmd.ErrOrStderr()})
	if err != nil {
		return usageError{err}
	}
	a.logger = logger
	return nil
}

// api returns the client for the configured base URL, creating it on first
// use.
func (a *app) api() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := api.New(a.cfg.API.BaseURL,
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithLogger(a.logger),
		api.WithUserAgent(paths.AppName+"/"+Version),
	)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	a.client = c
	return c, nil
}

// print writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}
	text(w)
	return nil
}
