package config

import (
	"time"

	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/iic"
	"github.com/radio-control/sdrfe/internal/mmio"
	"github.com/radio-control/sdrfe/internal/radio"
	"github.com/radio-control/sdrfe/internal/stream"
)

// Config is the complete service configuration.
type Config struct {
	Devices   DevicesConfig   `yaml:"devices" toml:"devices"`
	Radio     RadioConfig     `yaml:"radio" toml:"radio"`
	IIC       IICConfig       `yaml:"iic" toml:"iic"`
	Codec     CodecConfig     `yaml:"codec" toml:"codec"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
	API       APIConfig       `yaml:"api" toml:"api"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// DevicesConfig locates the register windows.
type DevicesConfig struct {
	MemPath   string `yaml:"memPath" toml:"memPath"`
	RadioBase uint64 `yaml:"radioBase" toml:"radioBase"`
	RadioSize uint32 `yaml:"radioSize" toml:"radioSize"`
	IICBase   uint64 `yaml:"iicBase" toml:"iicBase"`
	IICSize   uint32 `yaml:"iicSize" toml:"iicSize"`
	FIFOBase  uint64 `yaml:"fifoBase" toml:"fifoBase"`
	FIFOSize  uint32 `yaml:"fifoSize" toml:"fifoSize"`
}

// RadioConfig describes the DDS clocking.
type RadioConfig struct {
	ClockHz    float64 `yaml:"clockHz" toml:"clockHz"`
	PhaseWidth uint    `yaml:"phaseWidth" toml:"phaseWidth"`
}

// IICConfig tunes the I2C master.
type IICConfig struct {
	// PollTimeout bounds status polls; zero polls forever.
	PollTimeout time.Duration `yaml:"pollTimeout" toml:"pollTimeout"`
	SettleDelay time.Duration `yaml:"settleDelay" toml:"settleDelay"`
}

// CodecConfig controls codec start-up.
type CodecConfig struct {
	Address          uint16 `yaml:"address" toml:"address"`
	ConfigureOnStart bool   `yaml:"configureOnStart" toml:"configureOnStart"`

	// Volume is applied after start-up when in [0, 9]; -1 leaves it alone.
	Volume int          `yaml:"volume" toml:"volume"`
	Recipe []RecipeStep `yaml:"recipe" toml:"recipe"`
}

// RecipeStep is a configuration step as written in a config file.
// Register accepts a name ("power-management") or a number ("0x06").
type RecipeStep struct {
	Register string        `yaml:"register" toml:"register"`
	Value    uint16        `yaml:"value" toml:"value"`
	Delay    time.Duration `yaml:"delay" toml:"delay"`
}

// StreamConfig controls the IQ pipeline.
type StreamConfig struct {
	Enabled          bool          `yaml:"enabled" toml:"enabled"`
	Destination      string        `yaml:"destination" toml:"destination"`
	SamplesPerPacket int           `yaml:"samplesPerPacket" toml:"samplesPerPacket"`
	ByteOrder        string        `yaml:"byteOrder" toml:"byteOrder"`
	Length           int64         `yaml:"length" toml:"length"`
	Wrap             int           `yaml:"wrap" toml:"wrap"`
	PollTimeout      time.Duration `yaml:"pollTimeout" toml:"pollTimeout"`
	StatsEvery       int           `yaml:"statsEvery" toml:"statsEvery"`
}

// APIConfig controls the HTTP control surface.
type APIConfig struct {
	Listen         string        `yaml:"listen" toml:"listen"`
	ReadTimeout    time.Duration `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" toml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout" toml:"idleTimeout"`
	CommandTimeout time.Duration `yaml:"commandTimeout" toml:"commandTimeout"`
}

// AuthConfig controls bearer-token verification.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	Algorithm     string `yaml:"algorithm" toml:"algorithm"`
	Secret        string `yaml:"secret" toml:"secret"`
	PublicKeyFile string `yaml:"publicKeyFile" toml:"publicKeyFile"`
}

// TelemetryConfig controls the event stream.
type TelemetryConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval" toml:"heartbeatInterval"`
	HeartbeatJitter   time.Duration `yaml:"heartbeatJitter" toml:"heartbeatJitter"`
	EventBufferSize   int           `yaml:"eventBufferSize" toml:"eventBufferSize"`
}

// LogConfig controls the service log and the audit trail.
type LogConfig struct {
	// File receives a copy of the service log; empty logs to stderr only.
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" toml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
	Compress   bool   `yaml:"compress" toml:"compress"`
	AuditDir   string `yaml:"auditDir" toml:"auditDir"`
}

// Baseline returns the board defaults.
func Baseline() *Config {
	return &Config{
		Devices: DevicesConfig{
			MemPath:   mmio.DevMem,
			RadioBase: 0x43C0_0000,
			RadioSize: radio.Size,
			IICBase:   0x4160_0000,
			IICSize:   iic.Size,
			FIFOBase:  0x43C1_0000,
			FIFOSize:  stream.Size,
		},
		Radio: RadioConfig{
			ClockHz:    radio.DefaultClockHz,
			PhaseWidth: radio.DefaultPhaseWidth,
		},
		IIC: IICConfig{
			SettleDelay: iic.DefaultSettleDelay,
		},
		Codec: CodecConfig{
			Address:          codec.DefaultAddress,
			ConfigureOnStart: true,
			Volume:           -1,
		},
		Stream: StreamConfig{
			Enabled:          false,
			Destination:      stream.DefaultDestination,
			SamplesPerPacket: stream.DefaultSamplesPerPacket,
			ByteOrder:        "little",
			Wrap:             stream.CompatWrap,
			StatsEvery:       stream.DefaultStatsEvery,
		},
		API: APIConfig{
			Listen:         ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			CommandTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:   false,
			Algorithm: "HS256",
		},
		Telemetry: TelemetryConfig{
			HeartbeatInterval: 15 * time.Second,
			HeartbeatJitter:   2 * time.Second,
			EventBufferSize:   50,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			AuditDir:   "/var/log/sdrfe",
		},
	}
}

// RadioSettings converts the radio section.
func (c *Config) RadioSettings() radio.Config {
	return radio.Config{ClockHz: c.Radio.ClockHz, PhaseWidth: c.Radio.PhaseWidth}
}

// CodecRecipe returns the configured recipe, or the board default when none
// is set.
func (c *Config) CodecRecipe() (codec.Recipe, error) {
	if len(c.Codec.Recipe) == 0 {
		return codec.DefaultRecipe(), nil
	}
	recipe := make(codec.Recipe, 0, len(c.Codec.Recipe))
	for _, s := range c.Codec.Recipe {
		reg, err := codec.ParseRegister(s.Register)
		if err != nil {
			return nil, err
		}
		recipe = append(recipe, codec.Step{Register: reg, Value: s.Value, Delay: s.Delay})
	}
	return recipe, recipe.Validate()
}

// StreamSettings converts the stream section.
func (c *Config) StreamSettings() (stream.Config, error) {
	order, err := stream.ParseByteOrder(c.Stream.ByteOrder)
	if err != nil {
		return stream.Config{}, err
	}
	return stream.Config{
		SamplesPerPacket: c.Stream.SamplesPerPacket,
		ByteOrder:        order,
		Length:           c.Stream.Length,
		Wrap:             c.Stream.Wrap,
		PollTimeout:      c.Stream.PollTimeout,
		StatsEvery:       c.Stream.StatsEvery,
	}, nil
}
