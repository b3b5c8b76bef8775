package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Board selects a profile that seeds defaults for LED count, cooldowns
	// and the connected indicator.
	Board        string       `yaml:"board"`
	SampleRateHz float64      `yaml:"sample_rate_hz"`
	Detect       DetectConfig `yaml:"detect"`
	Sensor       SensorConfig `yaml:"sensor"`
	LEDs         LEDConfig    `yaml:"leds"`
	Link         LinkConfig   `yaml:"link"`
	Button       ButtonConfig `yaml:"button"`
	Record       RecordConfig `yaml:"record"`
}

type DetectConfig struct {
	Window      int    `yaml:"window"`
	PostCapture int    `yaml:"post_capture"`
	Classifier  string `yaml:"classifier"`

	TriggerG    float64 `yaml:"trigger_g"`
	TriggerJerk float64 `yaml:"trigger_jerk"`

	Fallback FallbackConfig `yaml:"fallback"`

	LocalBrakeHold time.Duration `yaml:"local_brake_hold"`
	ModelBrakeHold time.Duration `yaml:"model_brake_hold"`

	Cooldowns    CooldownConfig `yaml:"cooldowns"`
	CrashConfirm time.Duration  `yaml:"crash_confirm"`
}

type FallbackConfig struct {
	CrashG    float64 `yaml:"crash_g"`
	CrashJerk float64 `yaml:"crash_jerk"`
	BrakeJerk float64 `yaml:"brake_jerk"`
	BrakeMaxG float64 `yaml:"brake_max_g"`
}

type CooldownConfig struct {
	LocalBrake   time.Duration `yaml:"local_brake"`
	LocalCrash   time.Duration `yaml:"local_crash"`
	ModelAttempt time.Duration `yaml:"model_attempt"`
	ModelBrake   time.Duration `yaml:"model_brake"`
	ModelCrash   time.Duration `yaml:"model_crash"`
}

type SensorConfig struct {
	// Driver is mpu6500, sim or replay.
	Driver  string             `yaml:"driver"`
	I2CBus  string             `yaml:"i2c_bus"`
	Address uint16             `yaml:"address"`
	Sim     SimSensorConfig    `yaml:"sim"`
	Replay  ReplaySensorConfig `yaml:"replay"`
	Mount   MountConfig        `yaml:"mount"`
	// GlitchLimit is the number of consecutive failed reads tolerated
	// before the runtime faults.
	GlitchLimit int `yaml:"glitch_limit"`
}

type SimSensorConfig struct {
	Script string `yaml:"script"`
	Loop   bool   `yaml:"loop"`
}

// ReplaySensorConfig plays back the imu frames of a ride log.
type ReplaySensorConfig struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
}

// MountConfig describes how the sensor sits in the helmet or on the bike.
type MountConfig struct {
	// ForwardAxis is +/-1, +/-2 or +/-3 for sensor x, y, z; 0 keeps raw axes.
	ForwardAxis int `yaml:"forward_axis"`
	// Gravity is the sensor reading at rest, [x, y, z]. Learned at boot if
	// omitted.
	Gravity      []float64 `yaml:"gravity"`
	LevelSamples int       `yaml:"level_samples"`
}

type LEDConfig struct {
	// Driver is nrzled or none.
	Driver           string        `yaml:"driver"`
	Count            int           `yaml:"count"`
	SPIPort          string        `yaml:"spi_port"`
	FreqHz           int64         `yaml:"freq_hz"`
	Brightness       int           `yaml:"brightness"`
	ConnectIndicator time.Duration `yaml:"connect_indicator"`
}

type LinkConfig struct {
	// Transport is none, mqtt, ws, serial or udp.
	Transport      string        `yaml:"transport"`
	DeviceID       string        `yaml:"device_id"`
	StatusInterval time.Duration `yaml:"status_interval"`
	QueueSize      int           `yaml:"queue_size"`
	// StreamIMU publishes every sample on the imu topic while linked.
	StreamIMU bool `yaml:"stream_imu"`

	MQTT   MQTTConfig   `yaml:"mqtt"`
	WS     WSConfig     `yaml:"ws"`
	Serial SerialConfig `yaml:"serial"`
	UDP    UDPConfig    `yaml:"udp"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         byte   `yaml:"qos"`
}

type WSConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type UDPConfig struct {
	Dest   string `yaml:"dest"`
	Listen string `yaml:"listen"`
}

type ButtonConfig struct {
	Enable   bool          `yaml:"enable"`
	Chip     string        `yaml:"chip"`
	Line     int           `yaml:"line"`
	Debounce time.Duration `yaml:"debounce"`
}

// RecordConfig writes every sample, event and alert to a ride log.
type RecordConfig struct {
	Path string `yaml:"path"`
}

// Profile holds the per-board values that differ between hardware builds.
type Profile struct {
	LEDCount         int
	Cooldowns        CooldownConfig
	ConnectIndicator time.Duration
}

const (
	BoardLumaApp  = "luma-app"
	BoardHelmetC3 = "helmet-c3"
)

var profiles = map[string]Profile{
	BoardLumaApp: {
		LEDCount: 12,
		Cooldowns: CooldownConfig{
			LocalBrake:   400 * time.Millisecond,
			LocalCrash:   3 * time.Second,
			ModelAttempt: 800 * time.Millisecond,
			ModelBrake:   1500 * time.Millisecond,
			ModelCrash:   5 * time.Second,
		},
		ConnectIndicator: 3 * time.Second,
	},
	BoardHelmetC3: {
		LEDCount: 14,
		Cooldowns: CooldownConfig{
			LocalBrake:   200 * time.Millisecond,
			LocalCrash:   2500 * time.Millisecond,
			ModelAttempt: 600 * time.Millisecond,
			ModelBrake:   250 * time.Millisecond,
			ModelCrash:   2500 * time.Millisecond,
		},
		ConnectIndicator: 900 * time.Millisecond,
	},
}

// LookupProfile returns the profile for board.
func LookupProfile(board string) (Profile, bool) {
	p, ok := profiles[board]
	return p, ok
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies board and package defaults, and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.Board = strings.ToLower(strings.TrimSpace(c.Board))
	if c.Board == "" {
		c.Board = BoardLumaApp
	}
	p, ok := profiles[c.Board]
	if !ok {
		return fmt.Errorf("board must be %s or %s", BoardLumaApp, BoardHelmetC3)
	}

	if c.SampleRateHz == 0 {
		c.SampleRateHz = 50
	}

	d := &c.Detect
	if d.Window == 0 {
		d.Window = 150
	}
	if d.PostCapture == 0 {
		d.PostCapture = 25
	}
	if d.Classifier == "" {
		d.Classifier = "threshold"
	}
	if d.TriggerG == 0 {
		d.TriggerG = 1.6
	}
	if d.TriggerJerk == 0 {
		d.TriggerJerk = 6
	}
	if d.Fallback.CrashG == 0 {
		d.Fallback.CrashG = 3.0
	}
	if d.Fallback.CrashJerk == 0 {
		d.Fallback.CrashJerk = 40
	}
	if d.Fallback.BrakeJerk == 0 {
		d.Fallback.BrakeJerk = 14
	}
	if d.Fallback.BrakeMaxG == 0 {
		d.Fallback.BrakeMaxG = 2.2
	}
	if d.LocalBrakeHold == 0 {
		d.LocalBrakeHold = 800 * time.Millisecond
	}
	if d.ModelBrakeHold == 0 {
		d.ModelBrakeHold = 900 * time.Millisecond
	}
	cd := &d.Cooldowns
	if cd.LocalBrake == 0 {
		cd.LocalBrake = p.Cooldowns.LocalBrake
	}
	if cd.LocalCrash == 0 {
		cd.LocalCrash = p.Cooldowns.LocalCrash
	}
	if cd.ModelAttempt == 0 {
		cd.ModelAttempt = p.Cooldowns.ModelAttempt
	}
	if cd.ModelBrake == 0 {
		cd.ModelBrake = p.Cooldowns.ModelBrake
	}
	if cd.ModelCrash == 0 {
		cd.ModelCrash = p.Cooldowns.ModelCrash
	}
	if d.CrashConfirm == 0 {
		d.CrashConfirm = 30 * time.Second
	}

	s := &c.Sensor
	if s.Driver == "" {
		s.Driver = "mpu6500"
	}
	if s.I2CBus == "" {
		s.I2CBus = "/dev/i2c-1"
	}
	if s.Address == 0 {
		s.Address = 0x68
	}
	if s.GlitchLimit == 0 {
		s.GlitchLimit = 50
	}
	if s.Mount.LevelSamples == 0 {
		s.Mount.LevelSamples = int(c.SampleRateHz)
	}

	l := &c.LEDs
	if l.Driver == "" {
		l.Driver = "nrzled"
	}
	if l.Count == 0 {
		l.Count = p.LEDCount
	}
	if l.FreqHz == 0 {
		l.FreqHz = 800_000
	}
	if l.Brightness == 0 {
		l.Brightness = 153
	}
	if l.ConnectIndicator == 0 {
		l.ConnectIndicator = p.ConnectIndicator
	}

	k := &c.Link
	if k.Transport == "" {
		k.Transport = "none"
	}
	if k.StatusInterval == 0 {
		k.StatusInterval = 100 * time.Millisecond
	}
	if k.QueueSize == 0 {
		k.QueueSize = 64
	}
	if k.MQTT.TopicPrefix == "" {
		k.MQTT.TopicPrefix = "luma"
	}
	if k.WS.Listen == "" {
		k.WS.Listen = ":8081"
	}
	if k.WS.Path == "" {
		k.WS.Path = "/ws"
	}
	if k.Serial.Baud == 0 {
		k.Serial.Baud = 115200
	}
	if k.UDP.Listen == "" {
		k.UDP.Listen = ":4001"
	}

	if c.Button.Chip == "" {
		c.Button.Chip = "gpiochip0"
	}
	if c.Button.Debounce == 0 {
		c.Button.Debounce = 50 * time.Millisecond
	}
	return nil
}

func (c *Config) validate() error {
	if c.SampleRateHz < 1 || c.SampleRateHz > 1000 {
		return fmt.Errorf("sample_rate_hz must be within [1,1000]")
	}

	d := c.Detect
	if d.Window < 2 {
		return fmt.Errorf("detect.window must be >= 2")
	}
	if d.PostCapture < 0 || d.PostCapture >= d.Window {
		return fmt.Errorf("detect.post_capture must be within [0,window)")
	}
	switch d.Classifier {
	case "threshold", "tree":
	default:
		return fmt.Errorf("detect.classifier must be threshold or tree")
	}
	if d.Fallback.BrakeJerk >= d.Fallback.CrashJerk {
		return fmt.Errorf("detect.fallback.brake_jerk must be < crash_jerk")
	}
	for name, v := range map[string]time.Duration{
		"detect.local_brake_hold":        d.LocalBrakeHold,
		"detect.model_brake_hold":        d.ModelBrakeHold,
		"detect.cooldowns.local_brake":   d.Cooldowns.LocalBrake,
		"detect.cooldowns.local_crash":   d.Cooldowns.LocalCrash,
		"detect.cooldowns.model_attempt": d.Cooldowns.ModelAttempt,
		"detect.cooldowns.model_brake":   d.Cooldowns.ModelBrake,
		"detect.cooldowns.model_crash":   d.Cooldowns.ModelCrash,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}

	switch c.Sensor.Driver {
	case "mpu6500":
		if c.Sensor.Address > 0x7F {
			return fmt.Errorf("sensor.address must be a 7-bit i2c address")
		}
	case "sim":
		if c.Sensor.Sim.Script == "" {
			return fmt.Errorf("sensor.sim.script is required when sensor.driver is sim")
		}
	case "replay":
		if c.Sensor.Replay.Path == "" {
			return fmt.Errorf("sensor.replay.path is required when sensor.driver is replay")
		}
		if c.Record.Path != "" && c.Record.Path == c.Sensor.Replay.Path {
			return fmt.Errorf("record.path must differ from sensor.replay.path")
		}
	default:
		return fmt.Errorf("sensor.driver must be mpu6500, sim or replay")
	}

	m := c.Sensor.Mount
	if m.ForwardAxis < -3 || m.ForwardAxis > 3 {
		return fmt.Errorf("sensor.mount.forward_axis must be within [-3,3]")
	}
	if len(m.Gravity) != 0 && len(m.Gravity) != 3 {
		return fmt.Errorf("sensor.mount.gravity must have 3 components")
	}
	if len(m.Gravity) == 3 && m.ForwardAxis == 0 {
		return fmt.Errorf("sensor.mount.forward_axis is required when gravity is set")
	}
	if m.LevelSamples < 1 {
		return fmt.Errorf("sensor.mount.level_samples must be >= 1")
	}

	switch c.LEDs.Driver {
	case "nrzled", "none":
	default:
		return fmt.Errorf("leds.driver must be nrzled or none")
	}
	if c.LEDs.Count < 2 || c.LEDs.Count > 1024 {
		return fmt.Errorf("leds.count must be within [2,1024]")
	}
	if c.LEDs.Brightness < 0 || c.LEDs.Brightness > 255 {
		return fmt.Errorf("leds.brightness must be within [0,255]")
	}

	k := c.Link
	switch k.Transport {
	case "none", "ws":
	case "mqtt":
		if k.MQTT.Broker == "" {
			return fmt.Errorf("link.mqtt.broker is required when link.transport is mqtt")
		}
		if k.MQTT.QoS > 2 {
			return fmt.Errorf("link.mqtt.qos must be 0, 1 or 2")
		}
	case "serial":
		if k.Serial.Port == "" {
			return fmt.Errorf("link.serial.port is required when link.transport is serial")
		}
	case "udp":
		if k.UDP.Dest == "" {
			return fmt.Errorf("link.udp.dest is required when link.transport is udp")
		}
	default:
		return fmt.Errorf("link.transport must be one of none, mqtt, ws, serial, udp")
	}
	if k.StatusInterval < 0 {
		return fmt.Errorf("link.status_interval must be >= 0")
	}
	if k.QueueSize < 1 {
		return fmt.Errorf("link.queue_size must be >= 1")
	}

	if c.Button.Enable && c.Button.Line < 0 {
		return fmt.Errorf("button.line must be >= 0")
	}
	return nil
}

// SamplePeriod is the control loop tick.
func (c Config) SamplePeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.SampleRateHz)
}
