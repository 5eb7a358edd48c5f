package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
)

const sendCommandName = "send-event"

// NewSendCommand returns the hidden subcommand that detached delivery
// spawns. Embedding tools add it to their root command; it decodes the JSON
// payload given as the only argument and performs a single POST.
//
// Delivery failures exit successfully: by the time this runs the parent is
// usually gone and nobody can act on the error.
func NewSendCommand() *cobra.Command {
	var (
		rawURL string
		token  string
	)

	cmd := &cobra.Command{
		Use:    sendCommandName + " <payload>",
		Short:  "Deliver a single telemetry event",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p Payload
			if err := json.Unmarshal([]byte(args[0]), &p); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			client := &http.Client{Timeout: postTimeout}
			if err := postEvent(cmd.Context(), client, rawURL, token, &p); err != nil {
				slog.Debug("[telemetry] failed to deliver event", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", DefaultURL, "collection endpoint URL")
	cmd.Flags().StringVar(&token, "token", DefaultToken, "endpoint auth token")
	return cmd
}
