package config

import (
	"fmt"

	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/radio"
)

// Validate checks every section of cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateDevices(&cfg.Devices); err != nil {
		return fmt.Errorf("devices validation failed: %w", err)
	}
	if err := validateRadio(&cfg.Radio); err != nil {
		return fmt.Errorf("radio validation failed: %w", err)
	}
	if err := validateCodec(cfg); err != nil {
		return fmt.Errorf("codec validation failed: %w", err)
	}
	if err := validateStream(cfg); err != nil {
		return fmt.Errorf("stream validation failed: %w", err)
	}
	if err := validateAPI(&cfg.API); err != nil {
		return fmt.Errorf("api validation failed: %w", err)
	}
	if err := validateAuth(&cfg.Auth); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry validation failed: %w", err)
	}
	if cfg.IIC.PollTimeout < 0 || cfg.IIC.SettleDelay < 0 {
		return fmt.Errorf("iic validation failed: negative duration")
	}
	return nil
}

func validateDevices(d *DevicesConfig) error {
	if d.MemPath == "" {
		return fmt.Errorf("memory device path is empty")
	}
	windows := []struct {
		name string
		base uint64
		size uint32
	}{
		{"radio", d.RadioBase, d.RadioSize},
		{"iic", d.IICBase, d.IICSize},
		{"fifo", d.FIFOBase, d.FIFOSize},
	}
	for i, w := range windows {
		if w.size == 0 || w.size%4 != 0 {
			return fmt.Errorf("%s window size %#x must be a positive multiple of 4", w.name, w.size)
		}
		if w.base%4 != 0 {
			return fmt.Errorf("%s window base %#x is not word aligned", w.name, w.base)
		}
		for _, o := range windows[:i] {
			if w.base < o.base+uint64(o.size) && o.base < w.base+uint64(w.size) {
				return fmt.Errorf("%s window overlaps %s window", w.name, o.name)
			}
		}
	}
	return nil
}

func validateRadio(r *RadioConfig) error {
	if r.ClockHz <= 0 {
		return fmt.Errorf("clock must be positive, got %g", r.ClockHz)
	}
	if r.PhaseWidth == 0 || r.PhaseWidth > radio.MaxPhaseWidth {
		return fmt.Errorf("phase width %d outside [1, %d]", r.PhaseWidth, radio.MaxPhaseWidth)
	}
	return nil
}

func validateCodec(cfg *Config) error {
	if cfg.Codec.Address > 0x7F {
		return fmt.Errorf("address %#x is not 7-bit", cfg.Codec.Address)
	}
	if cfg.Codec.Volume < -1 || cfg.Codec.Volume > codec.MaxVolume {
		return fmt.Errorf("volume %d outside [-1, %d]", cfg.Codec.Volume, codec.MaxVolume)
	}
	if _, err := cfg.CodecRecipe(); err != nil {
		return fmt.Errorf("recipe: %w", err)
	}
	return nil
}

func validateStream(cfg *Config) error {
	sc, err := cfg.StreamSettings()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	if cfg.Stream.Enabled && cfg.Stream.Destination == "" {
		return fmt.Errorf("destination is empty")
	}
	return nil
}

func validateAPI(a *APIConfig) error {
	if a.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if a.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive, got %v", a.CommandTimeout)
	}
	if a.ReadTimeout < 0 || a.WriteTimeout < 0 || a.IdleTimeout < 0 {
		return fmt.Errorf("negative server timeout")
	}
	return nil
}

func validateAuth(a *AuthConfig) error {
	if !a.Enabled {
		return nil
	}
	switch a.Algorithm {
	case "HS256":
		if a.Secret == "" {
			return fmt.Errorf("HS256 requires a secret")
		}
	case "RS256":
		if a.PublicKeyFile == "" {
			return fmt.Errorf("RS256 requires a public key file")
		}
	default:
		return fmt.Errorf("unsupported algorithm %q", a.Algorithm)
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	if t.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", t.HeartbeatInterval)
	}
	if t.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", t.HeartbeatJitter)
	}
	if t.HeartbeatJitter > t.HeartbeatInterval/2 {
		return fmt.Errorf("heartbeat jitter %v exceeds 50%% of interval %v", t.HeartbeatJitter, t.HeartbeatInterval)
	}
	if t.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", t.EventBufferSize)
	}
	return nil
}
