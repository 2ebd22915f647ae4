// Package api exposes the radio, codec and stream controls as HTTP/JSON
// under /api/v1 and the telemetry hub as Server-Sent Events.
package api
