// Package auth verifies bearer tokens on the control API and enforces
// read, control and telemetry scopes.
package auth
