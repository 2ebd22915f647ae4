// Package telemetry fans control-plane events out to Server-Sent Events
// clients and keeps a bounded backlog for Last-Event-ID resume.
package telemetry
