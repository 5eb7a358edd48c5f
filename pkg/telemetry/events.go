package telemetry

import (
	"context"
	"errors"
	"os"

	"github.com/iterative/telemetry-go/pkg/platform"
)

// ErrConflictingDelivery reports that thread and daemon delivery were both
// requested for the same event. This is a programming mistake in the
// embedding tool, not an environmental failure, so it is returned rather
// than swallowed.
var ErrConflictingDelivery = errors.New("telemetry: thread and daemon delivery cannot both be requested")

// Payload is the wire shape of a single telemetry event.
type Payload struct {
	Interface   string         `json:"interface"`
	Action      string         `json:"action"`
	Error       string         `json:"error,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	ToolName    string         `json:"tool_name"`
	ToolVersion string         `json:"tool_version"`
	OSName      string         `json:"os_name"`
	OSVersion   string         `json:"os_version"`
	UserID      string         `json:"user_id"`
	GroupID     string         `json:"group_id"`
}

type eventOptions struct {
	errMsg    string
	extra     map[string]any
	useThread bool
	useDaemon bool
	daemonSet bool
}

// EventOption customizes a single event before dispatch.
type EventOption func(*eventOptions)

// WithError attaches an error class to the event.
func WithError(msg string) EventOption {
	return func(o *eventOptions) { o.errMsg = msg }
}

// WithField attaches one caller-supplied structured field to the event.
func WithField(key string, value any) EventOption {
	return func(o *eventOptions) {
		if o.extra == nil {
			o.extra = make(map[string]any)
		}
		o.extra[key] = value
	}
}

// WithExtra attaches caller-supplied structured fields to the event.
func WithExtra(extra map[string]any) EventOption {
	return func(o *eventOptions) {
		for k, v := range extra {
			if o.extra == nil {
				o.extra = make(map[string]any)
			}
			o.extra[k] = v
		}
	}
}

// UseThread delivers the event from a goroutine instead of a detached
// process. The caller is not awaited; the event is lost if the process
// exits first.
func UseThread() EventOption {
	return func(o *eventOptions) {
		o.useThread = true
		if !o.daemonSet {
			o.useDaemon = false
		}
	}
}

// UseDaemon delivers the event from a detached OS process that survives the
// caller's exit. This is the default.
func UseDaemon() EventOption {
	return func(o *eventOptions) {
		o.useDaemon = true
		o.daemonSet = true
	}
}

// UseSync delivers the event in-process, blocking for up to the POST
// timeout.
func UseSync() EventOption {
	return func(o *eventOptions) {
		o.useThread = false
		o.useDaemon = false
	}
}

// SendCLICall reports a CLI command invocation.
func (l *Logger) SendCLICall(cmdName string, opts ...EventOption) error {
	return l.SendEvent("cli", cmdName, opts...)
}

// SendEvent reports one event through the configured delivery strategy
// (detached process by default).
//
// Environmental failures — an opted-out or unresolvable identity, transport
// errors, spawn errors — drop the event silently. The returned error is
// non-nil only for caller mistakes: conflicting delivery options, or an
// unsupported host platform for which no payload can be built.
func (l *Logger) SendEvent(iface, action string, opts ...EventOption) error {
	o := eventOptions{useDaemon: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.useThread && o.useDaemon {
		return ErrConflictingDelivery
	}

	ctx := context.Background()
	uid, ok := l.isEnabled(ctx)
	if !ok {
		return nil
	}

	payload, err := l.buildPayload(iface, action, uid, &o)
	if err != nil {
		return err
	}
	if l.cfg.Debug {
		l.logger.Debug("sending payload", "interface", iface, "action", action, "user_id", uid)
	}

	switch {
	case o.useThread:
		l.sendThread(payload)
		return nil
	case o.useDaemon:
		return l.sendDetached(payload)
	default:
		l.sendSync(ctx, payload)
		return nil
	}
}

// isEnabled applies the opt-out gate: the environment override must be
// absent, the configured flag or predicate must be true, and the identity
// must resolve to a non-sentinel id. All three are required.
func (l *Logger) isEnabled(ctx context.Context) (string, bool) {
	if _, set := os.LookupEnv(DoNotTrackEnv); set {
		l.logger.Debug("disabled by environment", "var", DoNotTrackEnv)
		return "", false
	}

	enabled := l.cfg.Enabled
	if l.cfg.EnabledFunc != nil {
		enabled = l.cfg.EnabledFunc()
	}
	if !enabled {
		return "", false
	}

	uid, ok := l.identity.Resolve(ctx)
	if !ok {
		l.logger.Debug("no usable user id, dropping event")
		return "", false
	}
	return uid, true
}

func (l *Logger) buildPayload(iface, action, uid string, o *eventOptions) (*Payload, error) {
	hostInfo, err := platform.Describe()
	if err != nil {
		return nil, err
	}
	return &Payload{
		Interface:   iface,
		Action:      action,
		Error:       o.errMsg,
		Extra:       o.extra,
		ToolName:    l.cfg.ToolName,
		ToolVersion: l.cfg.ToolVersion,
		OSName:      hostInfo.OSName,
		OSVersion:   hostInfo.OSVersion,
		UserID:      uid,
		// The backend expects a group id; it mirrors the user id until
		// grouping exists server-side.
		GroupID: uid,
	}, nil
}
