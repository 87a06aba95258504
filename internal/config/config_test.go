package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesture_lock_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# broker
MQTT_BROKER=tcp://localhost:1883
DEVICE_NAME = front-door
SENSOR_SOURCE=mpu9250
IMU_SPI_DEVICE=/dev/spidev0.0
IMU_CS_PIN=8
IMU_ACCEL_RANGE=1
BUTTON_LEFT_PIN=GPIO17
BUTTON_RIGHT_PIN=GPIO27
LED_PIN=GPIO22
BUZZER_PIN=GPIO18
PIXEL_SPI_DEVICE=/dev/spidev1.0
PIXEL_COUNT=12
DISPLAY_ENABLED=true
IDLE_POLL_INTERVAL=15
WEB_SERVER_PORT=9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "front-door", cfg.DeviceName)
	assert.Equal(t, byte(1), cfg.IMUAccelRange)
	assert.Equal(t, "GPIO27", cfg.ButtonRightPin)
	assert.Equal(t, 12, cfg.PixelCount)
	assert.True(t, cfg.DisplayEnabled)
	assert.Equal(t, 15, cfg.IdlePollInterval)
	assert.Equal(t, 9090, cfg.WebServerPort)
	// untouched defaults
	assert.Equal(t, "gesture_lock/events", cfg.TopicLockEvents)
	assert.Equal(t, "gpio", cfg.ButtonSource)
}

func TestLoadMockWithRemoteButtons(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://broker:1883\nSENSOR_SOURCE=mock\nBUTTON_SOURCE=mqtt\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.SensorSource)
	assert.Equal(t, "mqtt", cfg.ButtonSource)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing broker", "SENSOR_SOURCE=mock\nBUTTON_SOURCE=mqtt\n", "MQTT_BROKER is required"},
		{"unknown key", "MQTT_BROKER=x\nFOO=bar\n", `unknown config key: "FOO"`},
		{"no equals", "MQTT_BROKER\n", "invalid config line 1"},
		{"accel range", "MQTT_BROKER=x\nIMU_ACCEL_RANGE=4\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"bad sensor", "MQTT_BROKER=x\nSENSOR_SOURCE=camera\n", "SENSOR_SOURCE must be"},
		{"serial port", "MQTT_BROKER=x\nSENSOR_SOURCE=serial\nBUTTON_SOURCE=mqtt\n", "SERIAL_PORT is required"},
		{"gpio pins", "MQTT_BROKER=x\nSENSOR_SOURCE=mock\n", "BUTTON_LEFT_PIN is required"},
		{"port range", "MQTT_BROKER=x\nWEB_SERVER_PORT=70000\n", "WEB_SERVER_PORT must be"},
		{"display bool", "MQTT_BROKER=x\nDISPLAY_ENABLED=maybe\n", "invalid DISPLAY_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://file:1883\nSENSOR_SOURCE=mock\nBUTTON_SOURCE=mqtt\n")
	t.Setenv("MQTT_BROKER", "tcp://env:1883")
	t.Setenv("MQTT_USERNAME", "lock")
	t.Setenv("MQTT_PASSWORD", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://env:1883", cfg.MQTTBroker)
	assert.Equal(t, "lock", cfg.MQTTUsername)
	assert.Equal(t, "s3cret", cfg.MQTTPassword)
}

func TestEnvironmentValuesAreValidated(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://b:1883\nSENSOR_SOURCE=mock\nBUTTON_SOURCE=mqtt\n")
	t.Setenv("WEB_SERVER_PORT", "99999")

	_, err := Load(path)
	assert.ErrorContains(t, err, "environment WEB_SERVER_PORT")
}
