// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"errors"
	"fmt"
)

var (
	// ErrInitializationFailed is returned by Begin when bring-up did not
	// complete. The device can be brought up again by retrying Begin.
	ErrInitializationFailed = errors.New("tmf8x01: initialization failed")
	// ErrNotInitialized is returned by operations that need Begin first.
	ErrNotInitialized = errors.New("tmf8x01: device not initialized")
	// ErrCalibrationUnavailable is returned when the sensor did not complete
	// a calibration capture yet. Retry after a delay.
	ErrCalibrationUnavailable = errors.New("tmf8x01: calibration data not available")
	// ErrInvalidCalibrationLength is returned when a calibration blob is not
	// exactly 14 bytes long.
	ErrInvalidCalibrationLength = errors.New("tmf8x01: calibration data must be 14 bytes")
	// ErrMissingCalibration is returned by StartMeasurement when a mode
	// requiring calibration is requested and none was set.
	ErrMissingCalibration = errors.New("tmf8x01: no calibration data set")
	// ErrUnsupportedMode is returned by StartMeasurement when the ranging
	// mode is not supported by the sensor model.
	ErrUnsupportedMode = errors.New("tmf8x01: ranging mode not supported by this model")
	// ErrNoSampleAvailable is returned when reading a distance without a
	// pending sample. Check IsDataReady first.
	ErrNoSampleAvailable = errors.New("tmf8x01: no sample available")
	// ErrMeasurementActive is returned by operations not permitted while
	// the sensor is ranging.
	ErrMeasurementActive = errors.New("tmf8x01: measurement in progress")
	// ErrStartFailed is returned when the sensor did not acknowledge the
	// measurement command.
	ErrStartFailed = errors.New("tmf8x01: sensor did not start ranging")
	// ErrNoEnablePin is returned by PowerOn and PowerDown without an EN pin.
	ErrNoEnablePin = errors.New("tmf8x01: no enable pin configured")
	// ErrBootloader is returned when the bootloader rejected a command or
	// the measurement application could not be loaded.
	ErrBootloader = errors.New("tmf8x01: bootloader failure")
)

// BusError is returned when an I²C transaction with the sensor failed.
type BusError struct {
	// Op is "read" or "write".
	Op string
	// Reg is the first register of the transaction.
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("tmf8x01: %s register 0x%02x: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
