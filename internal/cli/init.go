package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrysoftwarecorp/route-nest/internal/config"
	"github.com/harrysoftwarecorp/route-nest/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Create the configuration directory and write config.yaml with the
built-in defaults. An existing config.yaml is left untouched.

Example:
  routenest init
  routenest init --config-dir ./.routenest`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.cfg.ConfigDir, paths.ConfigFileName)
			written, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			out := struct {
				Path    string `json:"path"`
				Written bool   `json:"written"`
			}{path, written}
			return a.print(cmd, out, func(w io.Writer) {
				if written {
					fmt.Fprintf(w, "Wrote %s\n", path)
					return
				}
				fmt.Fprintf(w, "Config already exists: %s\n", path)
			})
		},
	}
}
