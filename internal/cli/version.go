package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the tablectl release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/tablecontrols"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tablectl version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tablectl v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
