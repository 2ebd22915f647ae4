package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// EnvConfigPath names the config file when Load is given an empty path.
const EnvConfigPath = "SDRFE_CONFIG"

// Load merges Baseline, the file at path (or $SDRFE_CONFIG) and SDRFE_*
// environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Baseline()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes path over cfg. Keys missing from the file keep their
// current values. The format follows the extension.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.UnmarshalStrict(data, cfg)
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

// applyEnvOverrides applies SDRFE_* environment variables to cfg. Malformed
// values are errors rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []string
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	uint64v := func(key string, dst *uint64) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseUint(v, 0, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	intv := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	int64v := func(key string, dst *int64) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseInt(v, 0, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	boolv := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}

	// Devices
	str("SDRFE_MEM_PATH", &cfg.Devices.MemPath)
	uint64v("SDRFE_RADIO_BASE", &cfg.Devices.RadioBase)
	uint64v("SDRFE_IIC_BASE", &cfg.Devices.IICBase)
	uint64v("SDRFE_FIFO_BASE", &cfg.Devices.FIFOBase)

	// I2C and codec
	dur("SDRFE_IIC_POLL_TIMEOUT", &cfg.IIC.PollTimeout)
	boolv("SDRFE_CODEC_CONFIGURE", &cfg.Codec.ConfigureOnStart)
	intv("SDRFE_CODEC_VOLUME", &cfg.Codec.Volume)

	// Stream
	boolv("SDRFE_STREAM_ENABLED", &cfg.Stream.Enabled)
	str("SDRFE_STREAM_DEST", &cfg.Stream.Destination)
	intv("SDRFE_STREAM_SAMPLES", &cfg.Stream.SamplesPerPacket)
	str("SDRFE_STREAM_ENDIAN", &cfg.Stream.ByteOrder)
	int64v("SDRFE_STREAM_LENGTH", &cfg.Stream.Length)
	intv("SDRFE_STREAM_WRAP", &cfg.Stream.Wrap)
	dur("SDRFE_STREAM_POLL_TIMEOUT", &cfg.Stream.PollTimeout)

	// API and auth
	str("SDRFE_API_LISTEN", &cfg.API.Listen)
	dur("SDRFE_API_COMMAND_TIMEOUT", &cfg.API.CommandTimeout)
	boolv("SDRFE_AUTH_ENABLED", &cfg.Auth.Enabled)
	str("SDRFE_AUTH_ALGORITHM", &cfg.Auth.Algorithm)
	str("SDRFE_AUTH_SECRET", &cfg.Auth.Secret)
	str("SDRFE_AUTH_PUBLIC_KEY_FILE", &cfg.Auth.PublicKeyFile)

	// Telemetry
	dur("SDRFE_TELEMETRY_HEARTBEAT_INTERVAL", &cfg.Telemetry.HeartbeatInterval)
	dur("SDRFE_TELEMETRY_HEARTBEAT_JITTER", &cfg.Telemetry.HeartbeatJitter)
	intv("SDRFE_TELEMETRY_EVENT_BUFFER_SIZE", &cfg.Telemetry.EventBufferSize)

	// Logging
	str("SDRFE_LOG_FILE", &cfg.Log.File)
	str("SDRFE_AUDIT_DIR", &cfg.Log.AuditDir)

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
