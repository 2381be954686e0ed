package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func newItinerariesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "itineraries",
		Aliases: []string{"itinerary"},
		Short:   "Group trips into itineraries",
	}
	cmd.AddCommand(newItinerariesListCmd(a), newItinerariesCreateCmd(a), newItinerariesAddTripCmd(a))
	return cmd
}

func printItinerary(w io.Writer, it *types.Itinerary) {
	fmt.Fprintf(w, "%s\t%s\t%d trips, %d days", it.ID, it.Name, len(it.TripIDs), it.TotalDuration)
	if !it.StartDate.IsZero() {
		fmt.Fprintf(w, ", %s to %s", it.StartDate.Local().Format(dateLayout), it.EndDate.Local().Format(dateLayout))
	}
	fmt.Fprintln(w)
}

func newItinerariesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your itineraries",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			its, err := c.ListItineraries(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, its, func(w io.Writer) {
				if len(its) == 0 {
					fmt.Fprintln(w, "No itineraries yet.")
					return
				}
				for i := range its {
					printItinerary(w, &its[i])
				}
			})
		},
	}
}

func newItinerariesCreateCmd(a *app) *cobra.Command {
	var (
		req        types.CreateItineraryRequest
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an itinerary",
		Long: `Create an itinerary, optionally seeded with trips.

Example:
  routenest itineraries create "Vietnam 2026" --start 2026-03-01 --end 2026-03-14
  routenest itineraries create Weekend --trip 65f1c0 --trip 65f1c1`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = strings.TrimSpace(args[0])
			sd, err := parseDate("start", start)
			if err != nil {
				return err
			}
			ed, err := parseDate("end", end)
			if err != nil {
				return err
			}
			if sd != nil {
				req.StartDate = *sd
			}
			if ed != nil {
				req.EndDate = *ed
			}
			if err := req.Validate(); err != nil {
				return usageError{err}
			}
			c, err := a.api()
			if err != nil {
				return err
			}
			it, err := c.CreateItinerary(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(cmd, it, func(w io.Writer) {
				fmt.Fprintf(w, "Created itinerary: %s\n", it.ID)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Description, "description", "", "description")
	f.StringSliceVar(&req.TripIDs, "trip", nil, "trip id (repeatable)")
	f.StringSliceVar(&req.Tags, "tag", nil, "tag (repeatable)")
	f.StringVar(&start, "start", "", "start date ("+dateLayout+")")
	f.StringVar(&end, "end", "", "end date ("+dateLayout+")")
	f.BoolVar(&req.IsPublic, "public", false, "make the itinerary public")
	return cmd
}

func newItinerariesAddTripCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-trip <itinerary-id> <trip-id>",
		Short: "Append a trip to an itinerary",
		Args:  userArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			it, err := c.AddTripToItinerary(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.print(cmd, it, func(w io.Writer) {
				fmt.Fprintf(w, "Added trip %s to itinerary %s\n", args[1], it.ID)
				printItinerary(w, it)
			})
		},
	}
}
