package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values. Gesture timing and
// matching constants are not here; they are compiled into package lock.
type Config struct {
	DeviceName string

	// MQTT
	MQTTBroker          string
	MQTTUsername        string
	MQTTPassword        string
	MQTTClientIDLock    string
	MQTTClientIDWeb     string
	MQTTClientIDConsole string

	// Topics
	TopicLockEvents  string
	TopicLockState   string
	TopicLockButtons string

	// Motion sensor: "mpu9250", "serial" or "mock"
	SensorSource string

	// MPU9250 over SPI
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Serial accelerometer board
	SerialPort     string
	SerialBaudRate int

	// Buttons: "gpio" or "mqtt"
	ButtonSource   string
	ButtonLeftPin  string
	ButtonRightPin string

	// Indicators (empty pin/device disables that output)
	LEDPin         string
	BuzzerPin      string
	PixelSPIDevice string
	PixelCount     int
	DisplayI2CBus  string
	DisplayEnabled bool

	// Timing
	IdlePollInterval int // milliseconds

	// Web Server
	WebServerPort int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		DeviceName:          "gesture-lock",
		MQTTClientIDLock:    "gesture-lock",
		MQTTClientIDWeb:     "gesture-lock-web",
		MQTTClientIDConsole: "gesture-lock-console",
		TopicLockEvents:     "gesture_lock/events",
		TopicLockState:      "gesture_lock/state",
		TopicLockButtons:    "gesture_lock/buttons",
		SensorSource:        "mpu9250",
		SerialBaudRate:      115200,
		ButtonSource:        "gpio",
		PixelCount:          10,
		IdlePollInterval:    20,
		WebServerPort:       8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Load .env file if it exists; it never overrides the real environment.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "DEVICE_NAME":
		c.DeviceName = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_USERNAME":
		c.MQTTUsername = value
	case "MQTT_PASSWORD":
		c.MQTTPassword = value
	case "MQTT_CLIENT_ID_LOCK":
		c.MQTTClientIDLock = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_LOCK_EVENTS":
		c.TopicLockEvents = value
	case "TOPIC_LOCK_STATE":
		c.TopicLockState = value
	case "TOPIC_LOCK_BUTTONS":
		c.TopicLockButtons = value

	// Motion sensor
	case "SENSOR_SOURCE":
		switch value {
		case "mpu9250", "serial", "mock":
			c.SensorSource = value
		default:
			return fmt.Errorf("SENSOR_SOURCE must be mpu9250, serial or mock, got %q", value)
		}
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = rate

	// Buttons
	case "BUTTON_SOURCE":
		switch value {
		case "gpio", "mqtt":
			c.ButtonSource = value
		default:
			return fmt.Errorf("BUTTON_SOURCE must be gpio or mqtt, got %q", value)
		}
	case "BUTTON_LEFT_PIN":
		c.ButtonLeftPin = value
	case "BUTTON_RIGHT_PIN":
		c.ButtonRightPin = value

	// Indicators
	case "LED_PIN":
		c.LEDPin = value
	case "BUZZER_PIN":
		c.BuzzerPin = value
	case "PIXEL_SPI_DEVICE":
		c.PixelSPIDevice = value
	case "PIXEL_COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PIXEL_COUNT %q: %w", value, err)
		}
		if n < 1 || n > 256 {
			return fmt.Errorf("PIXEL_COUNT must be 1-256, got %d", n)
		}
		c.PixelCount = n
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled

	// Timing
	case "IDLE_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IDLE_POLL_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("IDLE_POLL_INTERVAL must be positive, got %d", interval)
		}
		c.IdlePollInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// envKeys may be set in the environment (or .env) and then win over the
// config file. Credentials belong here rather than in the file.
var envKeys = []string{
	"DEVICE_NAME",
	"MQTT_BROKER",
	"MQTT_USERNAME",
	"MQTT_PASSWORD",
	"SENSOR_SOURCE",
	"BUTTON_SOURCE",
	"WEB_SERVER_PORT",
}

func (c *Config) applyEnv() error {
	for _, key := range envKeys {
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := c.setValue(key, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("environment %s: %w", key, err)
		}
	}
	return nil
}

// validate checks that the fields required by the selected sources are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	switch c.SensorSource {
	case "mpu9250":
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for SENSOR_SOURCE=mpu9250")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required for SENSOR_SOURCE=mpu9250")
		}
	case "serial":
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for SENSOR_SOURCE=serial")
		}
	}
	if c.ButtonSource == "gpio" {
		if c.ButtonLeftPin == "" {
			return fmt.Errorf("BUTTON_LEFT_PIN is required for BUTTON_SOURCE=gpio")
		}
		if c.ButtonRightPin == "" {
			return fmt.Errorf("BUTTON_RIGHT_PIN is required for BUTTON_SOURCE=gpio")
		}
	}
	return nil
}

// InitGlobal loads the configuration once; later calls return the first
// call's error and do not reload.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
