package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func newRoutesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Build and optimize trip routes",
	}
	cmd.AddCommand(newRoutesGenerateCmd(a), newRoutesOptimizeCmd(a))
	return cmd
}

func modeNames() string {
	names := make([]string, len(types.TransportModes))
	for i, m := range types.TransportModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func newRoutesGenerateCmd(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "generate <trip-id>",
		Short: "Build route segments between consecutive stops",
		Long: `Replace the routes of a trip with one segment per pair of consecutive
stops, travelled with --mode.

Modes: ` + modeNames() + `

Example:
  routenest routes generate 65f1c0
  routenest routes generate 65f1c0 --mode walking`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := types.TransportMode(mode)
			if !m.Valid() {
				return usageError{types.ErrInvalidMode}
			}
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.GenerateRoutes(cmd.Context(), m); err != nil {
				return err
			}
			trip := detail.Trip()
			return a.print(cmd, trip, func(w io.Writer) {
				fmt.Fprintf(w, "Generated %d routes by %s\n", len(trip.Routes), m)
				for _, r := range trip.Routes {
					fmt.Fprintf(w, "  %d -> %d  %s, %s\n", r.FromStopID, r.ToStopID,
						types.FormatDistance(r.Distance), types.FormatMinutes(int(math.Round(r.EstimatedDuration/60))))
				}
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeCar), "transport mode")
	return cmd
}

func newRoutesOptimizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <trip-id>",
		Short: "Reorder stops for a shorter route",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := a.loadTrip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := detail.OptimizeRoute(cmd.Context()); err != nil {
				return err
			}
			return a.printUpdated(cmd, detail, "Optimized route")
		},
	}
}
