// Package command serializes control operations on the radio and codec,
// validates their arguments, audits every call and publishes the
// resulting state changes as telemetry events.
package command
