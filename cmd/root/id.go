package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iterative/telemetry-go/pkg/identity"
)

func newIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the durable telemetry user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := identity.NewStore()
			id, ok := store.Resolve(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "telemetry is disabled or the id could not be resolved")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newOptOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "opt-out",
		Short: "Disable telemetry for this user until the identity file is removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := identity.NewStore()
			if err := store.OptOut(cmd.Context()); err != nil {
				return fmt.Errorf("opt out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Telemetry disabled.")
			return nil
		},
	}
}
