package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iterative/telemetry-go/pkg/identity"
)

const (
	// DefaultURL is the shared collection endpoint.
	DefaultURL = "https://iterative-telemetry.herokuapp.com/api/v1/s2s/event?ip_policy=strict"
	// DefaultToken authenticates against DefaultURL. It is not a secret;
	// the backend only uses it to route events.
	DefaultToken = "s2s.jtyjusrpsww4k9b76rrjri.bl62fbzrb7nd9n6vn5bpqt"

	// DoNotTrackEnv disables sending when present in the environment with
	// any value, regardless of configuration.
	DoNotTrackEnv = "ITERATIVE_DO_NOT_TRACK"

	postTimeout = 2 * time.Second
)

// HTTPClient issues outbound requests. Satisfied by *http.Client; tests
// substitute a capturing mock.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config is the caller-owned telemetry configuration: one instance per
// embedding tool process.
type Config struct {
	ToolName    string
	ToolVersion string

	// Enabled gates sending. When EnabledFunc is set it takes precedence
	// over Enabled and is consulted on every send.
	Enabled     bool
	EnabledFunc func() bool

	// URL and Token default to the shared collection endpoint.
	URL   string
	Token string

	// Debug logs payloads and delivery failures through the logger.
	Debug bool
}

// Logger builds and dispatches telemetry events for one embedding tool.
type Logger struct {
	cfg         Config
	logger      *telemetryLogger
	client      HTTPClient
	identity    *identity.Store
	detachedCmd []string
}

// Option customizes a Logger.
type Option func(*Logger)

// WithHTTPClient replaces the transport used by synchronous and threaded
// delivery.
func WithHTTPClient(c HTTPClient) Option {
	return func(l *Logger) { l.client = c }
}

// WithIdentityStore replaces the default identity store.
func WithIdentityStore(s *identity.Store) Option {
	return func(l *Logger) { l.identity = s }
}

// WithLogger sets the slog logger backing debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) { l.logger = newTelemetryLogger(logger) }
}

// WithDetachedCommand sets the executable and argument prefix spawned for
// detached delivery. The endpoint flags and the payload are appended to it.
// Defaults to re-invoking the current executable with "send-event", which
// works for tools that mount NewSendCommand on their root command.
func WithDetachedCommand(name string, args ...string) Option {
	return func(l *Logger) { l.detachedCmd = append([]string{name}, args...) }
}

// New creates a Logger for the given tool.
func New(cfg Config, opts ...Option) *Logger {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Token == "" {
		cfg.Token = DefaultToken
	}

	l := &Logger{
		cfg:    cfg,
		logger: newTelemetryLogger(slog.Default()),
		client: &http.Client{Timeout: postTimeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.identity == nil {
		l.identity = identity.NewStore(identity.WithLogger(l.logger.logger))
	}

	if cfg.Debug {
		l.logger.Debug("telemetry logger created",
			"tool_name", cfg.ToolName,
			"tool_version", cfg.ToolVersion,
			"endpoint", cfg.URL,
		)
	}
	return l
}

// telemetryLogger wraps slog.Logger to prepend a "[telemetry]" marker to all
// messages, keeping the library's debug output recognizable inside the host
// tool's logs.
type telemetryLogger struct {
	logger *slog.Logger
}

func newTelemetryLogger(logger *slog.Logger) *telemetryLogger {
	return &telemetryLogger{logger: logger}
}

func (tl *telemetryLogger) Debug(msg string, args ...any) {
	tl.logger.Debug("[telemetry] "+msg, args...)
}

func (tl *telemetryLogger) Warn(msg string, args ...any) {
	tl.logger.Warn("[telemetry] "+msg, args...)
}

// Enabled returns whether the underlying logger emits the given level.
func (tl *telemetryLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return tl.logger.Enabled(ctx, level)
}
