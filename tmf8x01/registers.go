// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/tof/tmf8x01/calibration"
)

// Register map of the measurement application.
const (
	regAppID      byte = 0x00
	regVerMajor   byte = 0x01
	regAppReqID   byte = 0x02
	regCmdData7   byte = 0x08
	regCmdData0   byte = 0x0F
	regCommand    byte = 0x10
	regVerMinor   byte = 0x12
	regVerPatch   byte = 0x13
	regStatus     byte = 0x1D
	regContents   byte = 0x1E
	regResult     byte = 0x20
	regSerial     byte = 0x28
	regStateData  byte = 0x2E
	regTemp       byte = 0x32
	regEnable     byte = 0xE0
	regIntStatus  byte = 0xE1
	regIntEnable  byte = 0xE2
	regVerChip    byte = 0xE4
	regBootloader byte = 0x08
)

// ENABLE register bits.
const (
	enablePON      byte = 1 << 0
	enableCPUReady byte = 1 << 6
	enableCPUReset byte = 1 << 7

	cpuReady = enableCPUReady | enablePON
)

// Application ids.
const (
	appBootloader byte = 0x80
	appMeasure    byte = 0xC0
)

// Commands written to regCommand.
const (
	cmdMeasure        byte = 0x02
	cmdFactoryCalib   byte = 0x0A
	cmdWriteCalib     byte = 0x0B
	cmdConfigureGPIO  byte = 0x0F
	cmdSerialNumber   byte = 0x47
	cmdStop           byte = 0xFF
	contentsCalib     byte = cmdFactoryCalib
	contentsSerial    byte = cmdSerialNumber
	contentsResult    byte = 0x55
	intStatusResult   byte = 1 << 0
	intEnableResult   byte = 1 << 0
	resultBlockLength      = 11
)

// Protocol timings. Waits are polled in steps of pollStep.
const (
	pollStep          = 5 * time.Millisecond
	cpuReadyTimeout   = 100 * time.Millisecond
	appTimeout        = 100 * time.Millisecond
	serialTimeout     = 100 * time.Millisecond
	calibTimeout      = 250 * time.Millisecond
	startTimeout      = 250 * time.Millisecond
	startDelay        = 600 * time.Millisecond
	commandSettleTime = 50 * time.Millisecond
)

// result is the result block starting at regStatus.
type result struct {
	status       byte
	contents     byte
	tid          byte
	resultNumber byte
	reliability  byte
	measStatus   byte
	distance     uint16
	sysClock     uint32
}

func parseResult(b []byte) result {
	return result{
		status:       b[0],
		contents:     b[1],
		tid:          b[2],
		resultNumber: b[3],
		reliability:  b[4] & 0x3F,
		measStatus:   b[4] >> 6,
		distance:     uint16(b[6])<<8 | uint16(b[5]),
		sysClock:     uint32(b[10])<<24 | uint32(b[9])<<16 | uint32(b[8])<<8 | uint32(b[7]),
	}
}

// registers is the typed view over the sensor register map.
type registers struct {
	t *transport
}

func (r *registers) enable() (byte, error) {
	return r.t.readByte(regEnable)
}

func (r *registers) appID() (byte, error) {
	return r.t.readByte(regAppID)
}

// resetCPU sets the CPU reset bit; the sensor restarts in its bootloader.
func (r *registers) resetCPU() error {
	v, err := r.enable()
	if err != nil {
		return err
	}
	return r.t.writeReg(regEnable, v|enableCPUReset)
}

func (r *registers) powerOn() error {
	return r.t.writeReg(regEnable, enablePON)
}

func (r *registers) waitCPUReady() error {
	ok, err := r.t.poll(regEnable, cpuReadyTimeout, pollStep, func(v byte) bool { return v == cpuReady })
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tmf8x01: cpu not ready after %s", cpuReadyTimeout)
	}
	return nil
}

// triggerAppMode requests application id and waits until it is running.
func (r *registers) triggerAppMode(id byte) error {
	if err := r.t.writeReg(regAppReqID, id); err != nil {
		return err
	}
	return r.waitApp(id)
}

func (r *registers) waitApp(id byte) error {
	ok, err := r.t.poll(regAppID, appTimeout, pollStep, func(v byte) bool { return v == id })
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: application 0x%02x not running after %s", ErrBootloader, id, appTimeout)
	}
	return nil
}

func (r *registers) command(cmd byte) error {
	return r.t.writeReg(regCommand, cmd)
}

// stop aborts the running command and lets the sensor settle.
func (r *registers) stop() error {
	if err := r.command(cmdStop); err != nil {
		return err
	}
	sleep(commandSettleTime)
	return nil
}

func (r *registers) waitContents(want byte, timeout time.Duration) (bool, error) {
	return r.t.poll(regContents, timeout, pollStep, func(v byte) bool { return v == want })
}

// uniqueID reads the serial number block. The upper 16 bits identify the
// sensor model.
func (r *registers) uniqueID() (uint32, error) {
	if err := r.command(cmdSerialNumber); err != nil {
		return 0, err
	}
	ok, err := r.waitContents(contentsSerial, serialTimeout)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("tmf8x01: serial number not reported after %s", serialTimeout)
	}
	var b [4]byte
	if err := r.t.readReg(regSerial, b[:]); err != nil {
		return 0, err
	}
	if err := r.stop(); err != nil {
		return 0, err
	}
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]), nil
}

func (r *registers) firmwareVersion() (Version, error) {
	var v Version
	for _, f := range []struct {
		reg byte
		dst *byte
	}{
		{regVerMajor, &v.Major},
		{regVerMinor, &v.Minor},
		{regVerPatch, &v.Patch},
		{regVerChip, &v.Chip},
	} {
		b, err := r.t.readByte(f.reg)
		if err != nil {
			return Version{}, err
		}
		*f.dst = b
	}
	return v, nil
}

// statusFlags reads the result block.
func (r *registers) statusFlags() (result, error) {
	var b [resultBlockLength]byte
	if err := r.t.readReg(regStatus, b[:]); err != nil {
		return result{}, err
	}
	return parseResult(b[:]), nil
}

// readCalibration asks the sensor for its factory calibration. It fails with
// ErrCalibrationUnavailable when the sensor did not report it in time.
func (r *registers) readCalibration() (calibration.Data, error) {
	id, err := r.appID()
	if err != nil {
		return calibration.Data{}, err
	}
	if id != appMeasure {
		return calibration.Data{}, fmt.Errorf("%w: application 0x%02x running", ErrCalibrationUnavailable, id)
	}
	if err := r.command(cmdFactoryCalib); err != nil {
		return calibration.Data{}, err
	}
	ok, err := r.waitContents(contentsCalib, calibTimeout)
	if err != nil {
		return calibration.Data{}, err
	}
	if !ok {
		return calibration.Data{}, ErrCalibrationUnavailable
	}
	var d calibration.Data
	if err := r.t.readReg(regResult, d[:]); err != nil {
		return calibration.Data{}, err
	}
	if err := r.stop(); err != nil {
		return calibration.Data{}, err
	}
	return d, nil
}

// writeCalibration loads a blob into the sensor. The whole blob is written in
// one transaction.
func (r *registers) writeCalibration(b []byte) error {
	if !calibration.Valid(b) {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidCalibrationLength, len(b))
	}
	if err := r.command(cmdWriteCalib); err != nil {
		return err
	}
	return r.t.writeReg(regResult, b...)
}

func (r *registers) writeAlgoState(s calibration.AlgoState) error {
	return r.t.writeReg(regStateData, s[:]...)
}

// writeCommandSet writes CMD_DATA7 to COMMAND in a single transaction, the
// last byte being the command itself.
func (r *registers) writeCommandSet(c commandSet) error {
	return r.t.writeReg(regCmdData7, c[:]...)
}

func (r *registers) setIntEnable(on bool) error {
	var v byte
	if on {
		v = intEnableResult
	}
	return r.t.writeReg(regIntEnable, v)
}

// clearInt acknowledges a pending result interrupt.
func (r *registers) clearInt() error {
	v, err := r.t.readByte(regIntStatus)
	if err != nil {
		return err
	}
	if v&intStatusResult == 0 {
		return nil
	}
	return r.t.writeReg(regIntStatus, v|intStatusResult)
}

func (r *registers) junctionTemperature() (int8, error) {
	v, err := r.t.readByte(regTemp)
	return int8(v), err
}

func (r *registers) configureGPIO(cfg byte) error {
	return r.t.writeReg(regCmdData0, cfg, cmdConfigureGPIO)
}

// commandSet is CMD_DATA7 to CMD_DATA0 followed by the command.
type commandSet [9]byte

const (
	cmdSetCalib = 0 // index of CMD_DATA7
	cmdSetMode  = 1 // index of CMD_DATA6

	bitCalib     = 0
	bitAlgo      = 1
	bitProximity = 0
	bitDistance  = 1
	bitInt       = 4
	bitCombine   = 5
)

func (c *commandSet) set(index, bit int, on bool) {
	if on {
		c[index] |= 1 << bit
	} else {
		c[index] &^= 1 << bit
	}
}

func (c *commandSet) isSet(index, bit int) bool {
	return c[index]&(1<<bit) != 0
}
