package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/paths"
)

const modulePath = "github.com/harrysoftwarecorp/route-nest"

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the routenest version",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\nmodule: %s\n", paths.AppName, Version, modulePath)
			return nil
		},
	}
}
