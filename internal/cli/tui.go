package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/config"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [trip-id]",
		Short: "Open the terminal client",
		Long: `Open the terminal client on the trip listing, or directly on a trip.
Logs go to the log file in the config directory because the screen owns
stdout.

Example:
  routenest tui
  routenest tui 65f1c0`,
		Args: userArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return a.runTUI(cmd, id)
		},
	}
}

func (a *app) runTUI(cmd *cobra.Command, tripID string) error {
	f, err := logging.OpenFile(a.cfg.LogFile())
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: a.cfg.Log.Level, Output: f})
	if err != nil {
		f.Close()
		return usageError{err}
	}
	defer logging.SafeClose(logger, f, "log file")
	a.logger = logger

	c, err := a.api()
	if err != nil {
		return err
	}
	logger.Info("starting tui", slog.String("api", c.BaseURL()), slog.String("trip_id", tripID))
	err = tui.Run(cmd.Context(), tui.Options{
		API:           c,
		Router:        a.router(logger),
		Places:        a.places(logger),
		PlaceLimit:    a.cfg.Places.Limit,
		Clipboard:     tripdetail.SystemClipboard{},
		Logger:        logger,
		NarrowWidth:   a.cfg.UI.NarrowWidth,
		DefaultZoom:   a.cfg.UI.DefaultZoom,
		InitialTripID: tripID,
	})
	if err != nil {
		logging.LogError(logger, "tui exited", err)
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// router returns the line drawer of the configured routing engine.
func (a *app) router(logger *slog.Logger) routing.Router {
	if a.cfg.Routing.Engine == config.EngineOSRM {
		return routing.NewOSRM(a.cfg.Routing.URL, a.cfg.Routing.Profile,
			&http.Client{Timeout: a.cfg.API.Timeout}, logger)
	}
	return routing.StraightLine{}
}
