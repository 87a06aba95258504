// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/panel"
	"github.com/relabs-tech/gesture_lock/internal/sensors"
	"github.com/relabs-tech/gesture_lock/internal/telemetry"
)

// RunLock runs the gesture lock until SIGINT/SIGTERM.
func RunLock(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDLock, cfg.MQTTUsername, cfg.MQTTPassword)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	var closers closerList
	defer closers.closeAll()

	sensor, err := openSensor(cfg, &closers)
	if err != nil {
		return err
	}
	buttons, err := openButtons(cfg, client, &closers)
	if err != nil {
		return err
	}
	indicator, err := openIndicators(cfg, os.Stdout, &closers)
	if err != nil {
		return err
	}

	settings := lock.DefaultSettings()
	if cfg.IdlePollInterval > 0 {
		settings.IdlePoll = time.Duration(cfg.IdlePollInterval) * time.Millisecond
	}

	m := lock.NewMachine(lock.Devices{
		Sensor:    sensor,
		Buttons:   buttons,
		Indicator: indicator,
		Events:    telemetry.NewPublisher(client, cfg.DeviceName, cfg.TopicLockEvents, cfg.TopicLockState),
	}, settings)

	log.Printf("lock: %s running (sensor=%s buttons=%s, %d samples per pattern)",
		cfg.DeviceName, cfg.SensorSource, cfg.ButtonSource, settings.Capacity)

	err = m.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Println("lock: shutting down")
		return nil
	}
	return err
}

type closerList []io.Closer

func (c *closerList) add(cl io.Closer) { *c = append(*c, cl) }

func (c closerList) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			log.Printf("lock: close: %v", err)
		}
	}
}

func openSensor(cfg *config.Config, closers *closerList) (lock.MotionSensor, error) {
	switch cfg.SensorSource {
	case "mpu9250":
		return sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
	case "serial":
		src, err := sensors.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, err
		}
		closers.add(src)
		return src, nil
	case "mock":
		period := lock.Capacity(lock.MaxTime, lock.PollingDelay)
		return sensors.NewMockSource(period, 0.05, uint64(time.Now().UnixNano())), nil
	}
	return nil, fmt.Errorf("lock: unknown sensor source %q", cfg.SensorSource)
}

// openButtons always listens on the MQTT buttons topic. With gpio, a
// physical or a remote press both count.
func openButtons(cfg *config.Config, client mqtt.Client, closers *closerList) (lock.ButtonSource, error) {
	remote, err := telemetry.NewRemoteButtons(client, cfg.TopicLockButtons, cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	switch cfg.ButtonSource {
	case "mqtt":
		return remote, nil
	case "gpio":
		phys, err := panel.NewGPIOButtons(cfg.ButtonLeftPin, cfg.ButtonRightPin)
		if err != nil {
			return nil, err
		}
		return telemetry.EitherButtons{phys, remote}, nil
	}
	return nil, fmt.Errorf("lock: unknown button source %q", cfg.ButtonSource)
}

// openIndicators builds every configured output. A failing optional output
// is logged and skipped; the console sink is used when nothing else is.
func openIndicators(cfg *config.Config, console io.Writer, closers *closerList) (lock.IndicatorSink, error) {
	var sinks panel.Multi

	if cfg.LEDPin != "" || cfg.BuzzerPin != "" {
		led, err := panel.NewLED(cfg.LEDPin, cfg.BuzzerPin)
		if err != nil {
			return nil, err
		}
		closers.add(led)
		sinks = append(sinks, led)
	}

	if cfg.PixelSPIDevice != "" {
		ring, err := panel.NewPixelRing(cfg.PixelSPIDevice, cfg.PixelCount)
		if err != nil {
			log.Printf("lock: pixel ring disabled: %v", err)
		} else {
			closers.add(ring)
			sinks = append(sinks, ring)
		}
	}

	if cfg.DisplayEnabled {
		oled, err := panel.NewOLED(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("lock: display disabled: %v", err)
		} else {
			closers.add(oled)
			sinks = append(sinks, oled)
		}
	}

	if len(sinks) == 0 {
		sinks = append(sinks, panel.Console{W: console})
	}
	return sinks, nil
}
