package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/paths"
	"github.com/harrysoftwarecorp/route-nest/internal/places"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// places returns the Nominatim searcher of the configured server.
func (a *app) places(logger *slog.Logger) *places.Nominatim {
	return places.NewNominatim(a.cfg.Places.URL, paths.AppName+"/"+Version,
		&http.Client{Timeout: a.cfg.API.Timeout}, logger)
}

func newPlacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "places",
		Short: "Look up locations on the map",
	}
	cmd.AddCommand(newPlacesSearchCmd(a))
	return cmd
}

func newPlacesSearchCmd(a *app) *cobra.Command {
	var (
		limit    int
		lat, lng float64
	)
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search OpenStreetMap for a place",
		Long: `Search OpenStreetMap Nominatim for a place by name or address. Results
near --lat/--lng rank higher and show their distance from it; without them
the default map centre is used.

Example:
  routenest places search Ben Thanh Market
  routenest places search "Landmark 81" --limit 1 --json`,
		Args: userArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
			if latSet != lngSet {
				return usagef("--lat and --lng must be given together")
			}
			near := geo.DefaultCenter
			if latSet {
				near = types.LatLng{Lat: lat, Lng: lng}
				if !near.Valid() {
					return usagef("invalid coordinates %v,%v", lat, lng)
				}
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Places.Limit
			}
			if limit < 1 {
				return usagef("--limit must be positive")
			}

			found, err := a.places(a.logger).Search(cmd.Context(), places.Query{
				Text:  strings.Join(args, " "),
				Limit: limit,
				Near:  &near,
			})
			if errors.Is(err, places.ErrEmptyQuery) {
				return usageError{err}
			}
			if err != nil {
				return err
			}
			return a.print(cmd, found, func(w io.Writer) {
				if len(found) == 0 {
					fmt.Fprintln(w, "No places found.")
					return
				}
				for _, p := range found {
					fmt.Fprintf(w, "%.6f,%.6f\t%s\t%s", p.Lat, p.Lng, p.Name, types.FormatDistance(p.Distance))
					if p.Label != "" && p.Label != p.Name {
						fmt.Fprintf(w, "\t%s", p.Label)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&limit, "limit", places.DefaultLimit, "maximum number of results (default from config places.limit)")
	f.Float64Var(&lat, "lat", 0, "latitude to search near")
	f.Float64Var(&lng, "lng", 0, "longitude to search near")
	return cmd
}
