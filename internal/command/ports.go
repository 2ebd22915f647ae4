package command

import (
	"context"
	"time"

	"github.com/radio-control/sdrfe/internal/stream"
	"github.com/radio-control/sdrfe/internal/telemetry"
)

// AuditLogger writes one record per operation.
type AuditLogger interface {
	LogAction(ctx context.Context, target, action string, params map[string]interface{}, err error, latency time.Duration)
}

// Publisher receives state-change events.
type Publisher interface {
	Publish(event telemetry.Event)
}

// StreamSource reports the IQ pipeline statistics.
type StreamSource interface {
	Stats() stream.Stats
}
