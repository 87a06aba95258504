// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

type imuSource struct {
	imu   *mpu9250.MPU9250
	scale float64 // m/s² per count
}

// NewIMUSource initializes an MPU9250 over SPI and returns a MotionSensor
// reporting acceleration in m/s².
func NewIMUSource(spiDev, csPin string, accelRange byte) (lock.MotionSensor, error) {
	if accelRange > 3 {
		return nil, fmt.Errorf("IMU: accel range %d out of range 0-3", accelRange)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	// The device has to lie still during calibration; a failure is not fatal.
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}

	return &imuSource{imu: imu, scale: countsToMS2(accelRange)}, nil
}

// countsToMS2 is the accelerometer resolution for an ACCEL_FS_SEL value.
func countsToMS2(accelRange byte) float64 {
	lsbPerG := float64(int(16384) >> accelRange)
	return StandardGravity / lsbPerG
}

// Read returns the current acceleration.
func (s *imuSource) Read() (gesture.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return gesture.Sample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return gesture.Sample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return gesture.Sample{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	return gesture.Sample{
		X: float64(ax) * s.scale,
		Y: float64(ay) * s.scale,
		Z: float64(az) * s.scale,
	}, nil
}
