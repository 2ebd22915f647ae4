package api

import (
	"context"
	"net/http"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/command"
	"github.com/radio-control/sdrfe/internal/stream"
	"github.com/radio-control/sdrfe/internal/telemetry"
)

// OrchestratorPort defines the minimal interface the API needs from the orchestrator.
type OrchestratorPort interface {
	RadioStatus(ctx context.Context) (adapter.RadioStatus, error)
	SetTone(ctx context.Context, hz float64) error
	SetTune(ctx context.Context, hz float64) error
	SetReset(ctx context.Context, asserted bool) error
	Timer(ctx context.Context) (uint32, error)
	Benchmark(ctx context.Context) (adapter.Throughput, error)

	ConfigureCodec(ctx context.Context) error
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, level int) error
	AdjustVolume(ctx context.Context, delta int) (int, error)
	ReadRegister(ctx context.Context, reg uint8) (uint16, error)
	WriteRegister(ctx context.Context, reg uint8, value uint16) error
	DumpRegisters(ctx context.Context) ([]adapter.RegisterValue, error)

	StreamStats() (stream.Stats, error)
}

// TelemetryPort defines the minimal interface the API needs from the telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

var _ OrchestratorPort = (*command.Orchestrator)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
