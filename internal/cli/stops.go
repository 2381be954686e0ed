package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// loadTrip returns a detail controller holding trip id.
func (a *app) loadTrip(ctx context.Context, id string) (*tripdetail.Controller, error) {
	c, err := a.api()
	if err != nil {
		return nil, err
	}
	detail := tripdetail.New(tripdetail.Options{
		API:         c,
		Clipboard:   tripdetail.SystemClipboard{},
		Logger:      a.logger,
		NarrowWidth: a.cfg.UI.NarrowWidth,
	})
	if err := detail.Load(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// printUpdated prints the trip after a mutation.
func (a *app) printUpdated(cmd *cobra.Command, detail *tripdetail.Controller, text string) error {
	trip := detail.Trip()
	return a.print(cmd, trip, func(w io.Writer) {
		fmt.Fprintln(w, text)
		printTrip(w, trip)
	})
}

func parseStopID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid stop id %q", s)
	}
	return id, nil
}

func newStopsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stops",
		Short: "Manage the stops of a trip",
	}
	cmd.AddCommand(
		newStopsAddCmd(a),
		newStopsUpdateCmd(a),
		newStopsDeleteCmd(a),
		newStopsCompleteCmd(a),
		newStopsReorderCmd(a),
	)
	return cmd
}

// stopFlags are the stop fields shared by add and update.
type stopFlags struct {
	name, description, lat, lng, arrival string
	duration                             int
	stopType, priority, cost, notes      string
}

func (s *stopFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.name, "name", "", "stop name")
	f.StringVar(&s.description, "description", "", "stop description")
	f.StringVar(&s.lat, "lat", "", "latitude")
	f.StringVar(&s.lng, "lng", "", "longitude")
	f.StringVar(&s.arrival, "arrival", "", "planned arrival ("+stopform.ArrivalLayout+", local time)")
	f.IntVar(&s.duration, "duration", stopform.DefaultDuration, "estimated duration in minutes")
	f.StringVar(&s.stopType, "type", string(stopform.DefaultStopType), "stop type")
	f.StringVar(&s.priority, "priority", string(stopform.DefaultPriority), "low, medium or high")
	f.StringVar(&s.cost, "cost", "", "cost")
	f.StringVar(&s.notes, "notes", "", "notes")
}

func newStopsAddCmd(a *app) *cobra.Command {
	var s stopFlags
	cmd := &cobra.Command{
		Use:   "add <trip-id>",
		Short: "Add a stop to a trip",
		Long: `Add a stop. --name, --lat and --lng are required. The arrival defaults
to now and the departure is the arrival plus the duration.

Example:
  routenest stops add 65f1c0 --name "Ben Thanh Market" --lat 10.7721 --lng 106.6980
  routenest stops add 65f1c0 --name Coffee --lat 10.78 --lng 106.70 --arrival "2026-03-01 09:30" --duration 45 --type food`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			detail.OpenAddStop()
			form := detail.Form()
			form.SetName(s.name)
			form.SetDescription(s.description)
			form.SetLatitude(s.lat)
			form.SetLongitude(s.lng)
			if s.arrival != "" {
				if err := form.SetArrivalText(s.arrival); err != nil {
					return err
				}
			}
			form.SetDuration(s.duration)
			form.SetStopType(types.StopType(s.stopType))
			form.SetPriority(types.Priority(s.priority))
			form.SetCost(s.cost)
			form.SetNotes(s.notes)
			if err := detail.SubmitStop(cmd.Context()); err != nil {
				return err
			}
			return a.printUpdated(cmd, detail, "Added stop: "+s.name)
		},
	}
	s.register(cmd)
	return cmd
}

func newStopsUpdateCmd(a *app) *cobra.Command {
	var (
		s       stopFlags
		skipped bool
	)
	cmd := &cobra.Command{
		Use:   "update <trip-id> <stop-id>",
		Short: "Change stop fields",
		Long: `Change the fields given on the command line. --lat and --lng must be
given together.

Example:
  routenest stops update 65f1c0 2 --duration 90 --priority high
  routenest stops update 65f1c0 2 --skipped`,
		Args: userArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			stopID, err := parseStopID(args[1])
			if err != nil {
				return err
			}
			req, err := s.update(cmd, stopID)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("skipped") {
				req.IsSkipped = &skipped
			}
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.EditStop(cmd.Context(), req); err != nil {
				return err
			}
			return a.printUpdated(cmd, detail, fmt.Sprintf("Updated stop: %d", stopID))
		},
	}
	s.register(cmd)
	cmd.Flags().BoolVar(&skipped, "skipped", false, "mark the stop skipped")
	return cmd
}

// update builds a partial update from the flags that were set.
func (s *stopFlags) update(cmd *cobra.Command, id int64) (types.UpdateStopRequest, error) {
	f := cmd.Flags()
	req := types.UpdateStopRequest{ID: id}
	if f.Changed("name") {
		req.Name = &s.name
	}
	if f.Changed("description") {
		req.Description = &s.description
	}
	if f.Changed("lat") || f.Changed("lng") {
		lat, err1 := strconv.ParseFloat(s.lat, 64)
		lng, err2 := strconv.ParseFloat(s.lng, 64)
		if err1 != nil || err2 != nil {
			return req, usageError{types.ErrInvalidCoordinates}
		}
		req.Lat, req.Lng = &lat, &lng
	}
	if f.Changed("arrival") {
		t, err := time.ParseInLocation(stopform.ArrivalLayout, s.arrival, time.Local)
		if err != nil {
			return req, usagef("--arrival: use %s", stopform.ArrivalLayout)
		}
		req.PlannedArrival = &t
		dep := t.Add(time.Duration(s.duration) * time.Minute)
		req.PlannedDeparture = &dep
	}
	if f.Changed("duration") {
		req.EstimatedDuration = &s.duration
	}
	if f.Changed("type") {
		t := types.StopType(s.stopType)
		req.StopType = &t
	}
	if f.Changed("priority") {
		p := types.Priority(s.priority)
		req.Priority = &p
	}
	if f.Changed("cost") {
		c, err := strconv.ParseFloat(s.cost, 64)
		if err != nil {
			return req, usageError{types.ErrInvalidCost}
		}
		req.Cost = &c
	}
	if f.Changed("notes") {
		req.Notes = &s.notes
	}
	return req, nil
}

func newStopsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trip-id> <stop-id>",
		Short: "Remove a stop",
		Args:  userArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			stopID, err := parseStopID(args[1])
			if err != nil {
				return err
			}
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.DeleteStop(cmd.Context(), stopID); err != nil {
				return err
			}
			return a.printUpdated(cmd, detail, fmt.Sprintf("Deleted stop: %d", stopID))
		},
	}
}

func newStopsCompleteCmd(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete <trip-id> <stop-id>",
		Short: "Mark a stop visited",
		Long: `Mark a stop visited, recording the arrival time. --undo reopens it.

Example:
  routenest stops complete 65f1c0 2
  routenest stops complete 65f1c0 2 --undo`,
		Args: userArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			stopID, err := parseStopID(args[1])
			if err != nil {
				return err
			}
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.SetStopCompleted(cmd.Context(), stopID, !undo); err != nil {
				return err
			}
			text := fmt.Sprintf("Completed stop: %d", stopID)
			if undo {
				text = fmt.Sprintf("Reopened stop: %d", stopID)
			}
			return a.printUpdated(cmd, detail, text)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "reopen the stop")
	return cmd
}

func newStopsReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <trip-id> <stop-id>...",
		Short: "Set the stop sequence",
		Long: `Set the visiting order. Every stop of the trip must be listed once.

Example:
  routenest stops reorder 65f1c0 3 1 2`,
		Args: userArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args)-1)
			for _, s := range args[1:] {
				id, err := parseStopID(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.ReorderStops(cmd.Context(), ids); err != nil {
				return err
			}
			return a.printUpdated(cmd, detail, "Reordered stops")
		},
	}
}
