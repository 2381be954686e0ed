package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/internal/triplist"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// dateLayout is the layout of date flags.
const dateLayout = time.DateOnly

func newTripsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Manage trips",
	}
	cmd.AddCommand(
		newTripsListCmd(a),
		newTripsShowCmd(a),
		newTripsCreateCmd(a),
		newTripsUpdateCmd(a),
		newTripsDeleteCmd(a),
		newTripsSearchCmd(a),
		newTripsPopularCmd(a),
		newTripsShareCmd(a),
		newTripsForkCmd(a),
		newTripsSharedCmd(a),
	)
	return cmd
}

func newTripsListCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your trips, newest first",
		Long: `List the trips of the current user, newest first. --search keeps the
trips whose name contains the text, ignoring case.

Example:
  routenest trips list
  routenest trips list --search saigon --json`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			list := triplist.New(triplist.Options{API: c, Logger: a.logger})
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			list.SetQuery(search)
			trips := list.Visible()
			return a.print(cmd, trips, func(w io.Writer) {
				if len(trips) == 0 {
					fmt.Fprintln(w, list.EmptyMessage())
					return
				}
				printSummaries(w, trips)
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by name")
	return cmd
}

func printSummaries(w io.Writer, trips []types.TripSummary) {
	for _, t := range trips {
		meta := []string{fmt.Sprintf("%d stops", t.StopCount)}
		if t.Stats.TotalDistance > 0 {
			meta = append(meta, types.FormatDistance(t.Stats.TotalDistance))
		}
		if t.EstimatedDuration > 0 {
			meta = append(meta, fmt.Sprintf("%d days", t.EstimatedDuration))
		}
		if t.Category != "" {
			meta = append(meta, string(t.Category))
		}
		if t.Rating != nil {
			meta = append(meta, fmt.Sprintf("rating %.1f", *t.Rating))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(meta, ", "))
	}
}

func newTripsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Show a trip with its stops and routes",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			trip, err := c.GetTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, trip, func(w io.Writer) { printTrip(w, trip) })
		},
	}
}

func printTrip(w io.Writer, t *types.Trip) {
	p := t.Progress()
	fmt.Fprintf(w, "%s (%s)\n", t.Name, t.ID)
	if t.Description != "" {
		fmt.Fprintln(w, t.Description)
	}
	sheet := tripdetail.SheetFor(t, geo.DefaultCenter)
	fmt.Fprintf(w, "Location: %s\n", sheet.Location)
	if sheet.Distance != "" {
		fmt.Fprintf(w, "Distance: %s\n", sheet.Distance)
	}
	fmt.Fprintf(w, "Duration: %s\n", sheet.Duration)
	fmt.Fprintf(w, "Progress: %d/%d stops (%.0f%%)\n", p.CompletedStops, p.TotalStops, p.PercentComplete)
	if t.Stats.TotalDistance > 0 {
		fmt.Fprintf(w, "Route: %s, %s\n", types.FormatDistance(t.Stats.TotalDistance), types.FormatMinutes(t.Stats.EstimatedDuration))
	}
	for i, s := range t.OrderedStops() {
		mark := " "
		switch {
		case s.IsCompleted:
			mark = "x"
		case s.IsSkipped:
			mark = "-"
		}
		fmt.Fprintf(w, "[%s] %d. %s (id %d) %s, %s, %s, %s\n", mark, i+1, s.Name, s.ID,
			s.PlannedArrival.Local().Format(stopform.ArrivalLayout),
			stopform.FormatDuration(s.EstimatedDuration), s.StopType, s.Priority)
	}
	if sheet.Next != nil {
		fmt.Fprintf(w, "Next: %s\n", sheet.Next.Name)
	}
}

// parseDate parses a --start or --end value. Empty yields nil.
func parseDate(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, usagef("--%s: use %s", flag, dateLayout)
	}
	return &t, nil
}

func newTripsCreateCmd(a *app) *cobra.Command {
	var (
		req      types.CreateTripRequest
		category string
		start    string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a trip",
		Long: `Create a trip and print its id.

Example:
  routenest trips create "Saigon Eats"
  routenest trips create "Mekong Loop" --days 3 --category road_trip --tag delta --start 2026-03-01`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			req.Category = types.TripCategory(category)
			sd, err := parseDate("start", start)
			if err != nil {
				return err
			}
			req.StartDate = sd
			if err := req.Validate(); err != nil {
				return usageError{err}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			trip, err := c.CreateTrip(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(cmd, trip, func(w io.Writer) {
				fmt.Fprintf(w, "Created trip: %s\n", trip.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Description, "description", "", "trip description")
	f.IntVar(&req.EstimatedDuration, "days", 0, "estimated duration in days")
	f.StringVar(&category, "category", "", "trip category")
	f.StringSliceVar(&req.Tags, "tag", nil, "tag (repeatable)")
	f.StringVar(&start, "start", "", "start date ("+dateLayout+")")
	f.BoolVar(&req.IsPublic, "public", false, "make the trip public")
	return cmd
}

func newTripsUpdateCmd(a *app) *cobra.Command {
	var (
		name, description, category, visibility, start, end string
		days                                                int
		tags                                                []string
		public                                              bool
	)
	cmd := &cobra.Command{
		Use:   "update <trip-id>",
		Short: "Change trip fields",
		Long: `Change the fields given on the command line. Other fields keep their
values.

Example:
  routenest trips update 65f1c0 --name "Saigon Street Food" --public`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var req types.UpdateTripRequest
			if f.Changed("name") {
				req.Name = &name
			}
			if f.Changed("description") {
				req.Description = &description
			}
			if f.Changed("days") {
				req.EstimatedDuration = &days
			}
			if f.Changed("category") {
				c := types.TripCategory(category)
				req.Category = &c
			}
			if f.Changed("tag") {
				req.Tags = tags
			}
			if f.Changed("public") {
				req.IsPublic = &public
			}
			if f.Changed("visibility") {
				v := types.Visibility(visibility)
				req.Visibility = &v
			}
			var err error
			if req.StartDate, err = parseDate("start", start); err != nil {
				return err
			}
			if req.EndDate, err = parseDate("end", end); err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return usageError{err}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			trip, err := c.UpdateTrip(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return a.print(cmd, trip, func(w io.Writer) {
				fmt.Fprintf(w, "Updated trip: %s\n", trip.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "trip name")
	f.StringVar(&description, "description", "", "trip description")
	f.IntVar(&days, "days", 0, "estimated duration in days")
	f.StringVar(&category, "category", "", "trip category")
	f.StringSliceVar(&tags, "tag", nil, "tag (repeatable, replaces all tags)")
	f.BoolVar(&public, "public", false, "make the trip public")
	f.StringVar(&visibility, "visibility", "", "private, public or shared")
	f.StringVar(&start, "start", "", "start date ("+dateLayout+")")
	f.StringVar(&end, "end", "", "end date ("+dateLayout+")")
	return cmd
}

func newTripsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			list := triplist.New(triplist.Options{API: c, Logger: a.logger})
			if err := list.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			out := map[string]string{"deleted": args[0]}
			return a.print(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted trip: %s\n", args[0])
			})
		},
	}
}

func newTripsSearchCmd(a *app) *cobra.Command {
	var (
		query, category string
		tags            []string
		lat, lng        float64
		radius          float64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search public trips",
		Long: `Search public trips by text, category, tags and distance. --lat and
--lng must be given together; --radius is in kilometres.

Example:
  routenest trips search --query coffee
  routenest trips search --category food_tour --lat 10.7769 --lng 106.7009 --radius 10`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			params := types.SearchParams{
				Query:    query,
				Category: types.TripCategory(category),
				Tags:     tags,
				Radius:   radius,
			}
			if f.Changed("lat") != f.Changed("lng") {
				return usagef("--lat and --lng must be given together")
			}
			if f.Changed("lat") {
				if !(types.LatLng{Lat: lat, Lng: lng}).Valid() {
					return usageError{types.ErrInvalidCoordinates}
				}
				params.Lat, params.Lng = &lat, &lng
			}
			if params.Category != "" && !params.Category.Valid() {
				return usageError{types.ErrInvalidCategory}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			list := triplist.New(triplist.Options{API: c, Logger: a.logger})
			trips, err := list.SearchRemote(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.print(cmd, trips, func(w io.Writer) {
				if len(trips) == 0 {
					fmt.Fprintln(w, triplist.EmptySearchText)
					return
				}
				printSummaries(w, trips)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&query, "query", "", "text to match")
	f.StringVar(&category, "category", "", "trip category")
	f.StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	f.Float64Var(&lat, "lat", 0, "latitude of the search centre")
	f.Float64Var(&lng, "lng", 0, "longitude of the search centre")
	f.Float64Var(&radius, "radius", 0, "search radius in km")
	return cmd
}

func newTripsPopularCmd(a *app) *cobra.Command {
	var (
		lat, lng float64
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular public trips near a point",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := types.LatLng{Lat: lat, Lng: lng}
			if !at.Valid() {
				return usageError{types.ErrInvalidCoordinates}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			trips, err := c.PopularTrips(cmd.Context(), at, limit)
			if err != nil {
				return err
			}
			return a.print(cmd, trips, func(w io.Writer) { printSummaries(w, trips) })
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", geo.DefaultCenter.Lat, "latitude")
	f.Float64Var(&lng, "lng", geo.DefaultCenter.Lng, "longitude")
	f.IntVar(&limit, "limit", 10, "maximum number of trips")
	return cmd
}

func newTripsShareCmd(a *app) *cobra.Command {
	var copyURL bool
	cmd := &cobra.Command{
		Use:   "share <trip-id>",
		Short: "Create a share link for a trip",
		Long: `Create a share link. Every call issues a new token. --copy also puts
the URL on the system clipboard.

Example:
  routenest trips share 65f1c0 --copy`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if copyURL {
				detail, err := a.loadTrip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				url, err := detail.Share(cmd.Context())
				if err != nil && url == "" {
					return err
				}
				out := map[string]string{"url": url}
				if perr := a.print(cmd, out, func(w io.Writer) { fmt.Fprintln(w, url) }); perr != nil {
					return perr
				}
				return err
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			link, err := c.CreateShareLink(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, link, func(w io.Writer) {
				fmt.Fprintf(w, "%s\nexpires %s\n", link.URL, link.ExpiresAt.Local().Format(time.DateTime))
			})
		},
	}
	cmd.Flags().BoolVar(&copyURL, "copy", false, "copy the URL to the clipboard")
	return cmd
}

func newTripsForkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fork <trip-id>",
		Short: "Copy a trip into your own trips",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			trip, err := c.ForkTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, trip, func(w io.Writer) {
				fmt.Fprintf(w, "Forked trip: %s\n", trip.ID)
			})
		},
	}
}

func newTripsSharedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shared <token>",
		Short: "Show the trip behind a share token",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			token := args[0]
			// Accept a full share URL as well as the bare token.
			if i := strings.LastIndex(token, "/"); i >= 0 {
				token = token[i+1:]
			}
			trip, err := c.SharedTrip(cmd.Context(), token)
			if err != nil {
				return err
			}
			return a.print(cmd, trip, func(w io.Writer) { printTrip(w, trip) })
		},
	}
}
