package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"slices"

	"github.com/iterative/telemetry-go/pkg/platform"
)

// sendSync performs one POST and swallows every transport failure.
func (l *Logger) sendSync(ctx context.Context, p *Payload) {
	if err := postEvent(ctx, l.client, l.cfg.URL, l.cfg.Token, p); err != nil {
		l.logger.Debug("failed to send telemetry event", "error", err)
	}
}

// sendThread is fire and forget: the goroutine is not awaited, errors are
// not observable, and the process may exit before the POST completes.
func (l *Logger) sendThread(p *Payload) {
	go l.sendSync(context.Background(), p)
}

// sendDetached hands the payload to an independent helper process that can
// outlive the caller, for short-lived CLI invocations. The payload travels
// as a single JSON argument so the child needs nothing from the parent once
// started.
func (l *Logger) sendDetached(p *Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		l.logger.Debug("cannot marshal payload", "error", err)
		return nil
	}

	name, args := l.detachedCommand()
	if name == "" {
		return nil
	}
	args = append(args, "--url", l.cfg.URL, "--token", l.cfg.Token, string(body))

	if err := platform.SpawnDetached(name, args...); err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			// No delivery path exists at all; surface it.
			return err
		}
		l.logger.Debug("failed to spawn detached sender", "error", err)
	}
	return nil
}

// detachedCommand returns the executable and argument prefix for detached
// delivery, defaulting to the current executable's hidden send-event
// subcommand.
func (l *Logger) detachedCommand() (string, []string) {
	if len(l.detachedCmd) > 0 {
		return l.detachedCmd[0], slices.Clone(l.detachedCmd[1:])
	}
	exe, err := os.Executable()
	if err != nil {
		l.logger.Debug("cannot locate executable for detached delivery", "error", err)
		return "", nil
	}
	return exe, []string{sendCommandName}
}
