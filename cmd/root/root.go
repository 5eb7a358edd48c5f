// Package root wires the itelemetry CLI: small operational commands around
// the telemetry client, plus the hidden send-event helper used by detached
// delivery.
package root

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iterative/telemetry-go/pkg/telemetry"
)

type rootFlags struct {
	debugMode bool
}

func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "itelemetry",
		Short: "itelemetry - inspect and exercise the telemetry client",
		Example: `  itelemetry id
  itelemetry opt-out`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flags.debugMode {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
		},
		// If no subcommand is specified, show help
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newIDCmd())
	cmd.AddCommand(newOptOutCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(telemetry.NewSendCommand())

	return cmd
}
