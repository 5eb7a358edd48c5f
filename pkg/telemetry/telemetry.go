// Package telemetry implements an opt-out anonymous usage reporter for
// developer tools.
//
// Events carry only coarse invocation data: the tool name and version, the
// interface and action invoked, an optional error class, and the host OS
// family and version, keyed by a durable pseudonymous per-machine identifier.
// The package never collects user input, file contents, credentials, or
// anything personally identifying.
//
// Delivery is best effort and at most once. Failing to resolve the
// identifier, reach the endpoint, or finish within the timeout quietly drops
// the event: telemetry must never break or delay the embedding tool. The
// only errors surfaced to callers are contract violations — conflicting
// delivery options and unsupported host platforms.
//
// Files in this package:
// - client.go: Logger construction and configuration
// - events.go: event options, the enabled gate and payload assembly
// - send.go: the three delivery strategies (sync, thread, detached)
// - http.go: the single outbound POST
// - sendcmd.go: the hidden subcommand run by detached delivery
package telemetry
