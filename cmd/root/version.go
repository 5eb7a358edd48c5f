package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iterative/telemetry-go/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "itelemetry version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", version.Commit)
		},
	}
}
