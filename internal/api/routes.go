package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/auth"
	"github.com/radio-control/sdrfe/internal/codec"
)

// Prefix is the base path of every route.
const Prefix = "/api/v1"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// RegisterRoutes registers every endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+Prefix+"/health", s.handleHealth)

	s.handle(mux, "GET /radio", auth.ScopeRead, s.handleRadioStatus)
	s.handle(mux, "POST /radio/tone", auth.ScopeControl, s.handleSetTone)
	s.handle(mux, "POST /radio/tune", auth.ScopeControl, s.handleSetTune)
	s.handle(mux, "POST /radio/reset", auth.ScopeControl, s.handleSetReset)
	s.handle(mux, "GET /radio/timer", auth.ScopeRead, s.handleTimer)
	s.handle(mux, "POST /radio/benchmark", auth.ScopeControl, s.handleBenchmark)

	s.handle(mux, "GET /codec/volume", auth.ScopeRead, s.handleGetVolume)
	s.handle(mux, "POST /codec/volume", auth.ScopeControl, s.handleSetVolume)
	s.handle(mux, "POST /codec/configure", auth.ScopeControl, s.handleConfigureCodec)
	s.handle(mux, "GET /codec/registers", auth.ScopeRead, s.handleDumpRegisters)
	s.handle(mux, "GET /codec/registers/{reg}", auth.ScopeRead, s.handleReadRegister)
	s.handle(mux, "POST /codec/registers/{reg}", auth.ScopeControl, s.handleWriteRegister)

	s.handle(mux, "GET /stream", auth.ScopeRead, s.handleStream)
	s.handle(mux, "GET /telemetry", auth.ScopeTelemetry, s.handleTelemetry)
}

// handle registers "METHOD /path" under Prefix behind auth and scope checks.
func (s *Server) handle(mux *http.ServeMux, pattern, scope string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	wrapped := s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(scope)(func(w http.ResponseWriter, r *http.Request) {
		if s.orchestrator == nil {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Orchestrator not available", nil)
			return
		}
		h(w, r)
	}))
	mux.HandleFunc(method+" "+Prefix+path, wrapped)
}

// decodeJSON strictly decodes one JSON object from the request body.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return BadRequest("Malformed JSON or unknown fields: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return BadRequest("Trailing data after JSON object")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	subsystems := map[string]bool{
		"orchestrator": s.orchestrator != nil,
		"telemetry":    s.telemetryHub != nil,
	}

	health := map[string]interface{}{
		"status":      "ok",
		"uptimeSec":   time.Since(s.startTime).Seconds(),
		"version":     Version,
		"subsystems":  subsystems,
		"authEnabled": s.authMiddleware.Enabled(),
	}

	if !subsystems["orchestrator"] || !subsystems["telemetry"] {
		health["status"] = "degraded"
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
		return
	}
	WriteSuccess(w, health)
}

func (s *Server) handleRadioStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.orchestrator.RadioStatus(r.Context())
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, status)
}

type frequencyRequest struct {
	Hz *float64 `json:"hz"`
}

func (s *Server) decodeFrequency(r *http.Request) (float64, error) {
	var req frequencyRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, err
	}
	if req.Hz == nil {
		return 0, BadRequest("Missing required field hz")
	}
	return *req.Hz, nil
}

func (s *Server) handleSetTone(w http.ResponseWriter, r *http.Request) {
	hz, err := s.decodeFrequency(r)
	if err == nil {
		err = s.orchestrator.SetTone(r.Context(), hz)
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]float64{"toneHz": hz})
}

func (s *Server) handleSetTune(w http.ResponseWriter, r *http.Request) {
	hz, err := s.decodeFrequency(r)
	if err == nil {
		err = s.orchestrator.SetTune(r.Context(), hz)
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]float64{"tuneHz": hz})
}

func (s *Server) handleSetReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reset *bool `json:"reset"`
	}
	err := decodeJSON(r, &req)
	if err == nil && req.Reset == nil {
		err = BadRequest("Missing required field reset")
	}
	if err == nil {
		err = s.orchestrator.SetReset(r.Context(), *req.Reset)
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"reset": *req.Reset})
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	ticks, err := s.orchestrator.Timer(r.Context())
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]uint32{"timer": ticks})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	result, err := s.orchestrator.Benchmark(r.Context())
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, result)
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	level, err := s.orchestrator.Volume(r.Context())
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]int{"level": level})
}

// handleSetVolume accepts exactly one of {"level": n} or {"delta": n}.
func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level *int `json:"level"`
		Delta *int `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, err)
		return
	}

	var level int
	var err error
	switch {
	case req.Level != nil && req.Delta != nil:
		err = BadRequest("Specify level or delta, not both")
	case req.Level != nil:
		level = *req.Level
		err = s.orchestrator.SetVolume(r.Context(), level)
	case req.Delta != nil:
		level, err = s.orchestrator.AdjustVolume(r.Context(), *req.Delta)
	default:
		err = BadRequest("Missing required field level or delta")
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]int{"level": level})
}

func (s *Server) handleConfigureCodec(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ConfigureCodec(r.Context()); err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"configured": true})
}

func (s *Server) handleDumpRegisters(w http.ResponseWriter, r *http.Request) {
	regs, err := s.orchestrator.DumpRegisters(r.Context())
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, regs)
}

func registerFromPath(r *http.Request) (codec.Register, error) {
	reg, err := codec.ParseRegister(r.PathValue("reg"))
	if err != nil {
		return 0, BadRequest("%v", err)
	}
	return reg, nil
}

func (s *Server) handleReadRegister(w http.ResponseWriter, r *http.Request) {
	reg, err := registerFromPath(r)
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	value, err := s.orchestrator.ReadRegister(r.Context(), uint8(reg))
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, adapter.RegisterValue{Name: reg.String(), Address: uint8(reg), Value: value})
}

func (s *Server) handleWriteRegister(w http.ResponseWriter, r *http.Request) {
	reg, err := registerFromPath(r)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	var req struct {
		Value *uint16 `json:"value"`
	}
	err = decodeJSON(r, &req)
	if err == nil && req.Value == nil {
		err = BadRequest("Missing required field value")
	}
	if err == nil {
		err = s.orchestrator.WriteRegister(r.Context(), uint8(reg), *req.Value)
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, adapter.RegisterValue{Name: reg.String(), Address: uint8(reg), Value: *req.Value})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	stats, err := s.orchestrator.StreamStats()
	if err != nil {
		WriteAPIError(w, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"stats":      stats,
		"sampleRate": stats.SampleRate(),
	})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Telemetry service not available", nil)
		return
	}

	// The stream is long-lived; lift the server write deadline.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	if err := s.telemetryHub.Subscribe(r.Context(), w, r); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Failed to subscribe to telemetry stream", nil)
	}
}
