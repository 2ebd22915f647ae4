package config

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"baseline", func(*Config) {}, false},
		{"nil mem path", func(c *Config) { c.Devices.MemPath = "" }, true},
		{"zero window", func(c *Config) { c.Devices.RadioSize = 0 }, true},
		{"unaligned base", func(c *Config) { c.Devices.FIFOBase = 0x43C10002 }, true},
		{"overlapping windows", func(c *Config) { c.Devices.FIFOBase = c.Devices.RadioBase + 8 }, true},
		{"zero clock", func(c *Config) { c.Radio.ClockHz = 0 }, true},
		{"wide phase", func(c *Config) { c.Radio.PhaseWidth = 33 }, true},
		{"32-bit phase", func(c *Config) { c.Radio.PhaseWidth = 32 }, true},
		{"31-bit phase", func(c *Config) { c.Radio.PhaseWidth = 31 }, false},
		{"8-bit codec address", func(c *Config) { c.Codec.Address = 0x80 }, true},
		{"volume too high", func(c *Config) { c.Codec.Volume = 10 }, true},
		{"volume set", func(c *Config) { c.Codec.Volume = 9 }, false},
		{"bad recipe register", func(c *Config) { c.Codec.Recipe = []RecipeStep{{Register: "bogus"}} }, true},
		{"bad recipe value", func(c *Config) { c.Codec.Recipe = []RecipeStep{{Register: "active", Value: 0x200}} }, true},
		{"bad byte order", func(c *Config) { c.Stream.ByteOrder = "middle" }, true},
		{"bad wrap", func(c *Config) { c.Stream.Wrap = 4096 }, true},
		{"enabled without destination", func(c *Config) { c.Stream.Enabled = true; c.Stream.Destination = "" }, true},
		{"zero command timeout", func(c *Config) { c.API.CommandTimeout = 0 }, true},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, true},
		{"auth with secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.Secret = "s" }, false},
		{"rs256 without key", func(c *Config) { c.Auth.Enabled = true; c.Auth.Algorithm = "RS256" }, true},
		{"unknown algorithm", func(c *Config) { c.Auth.Enabled = true; c.Auth.Algorithm = "none" }, true},
		{"jitter too large", func(c *Config) { c.Telemetry.HeartbeatJitter = 10 * time.Second }, true},
		{"zero event buffer", func(c *Config) { c.Telemetry.EventBufferSize = 0 }, true},
		{"negative iic timeout", func(c *Config) { c.IIC.PollTimeout = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Baseline()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if Validate(nil) == nil {
		t.Error("nil config accepted")
	}
}
