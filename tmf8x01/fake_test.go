// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

func TestMain(m *testing.M) {
	sleep = func(time.Duration) {}
	os.Exit(m.Run())
}

var errNack = errors.New("fakeSensor: nack")

var (
	serialTMF8801 = [4]byte{0x1A, 0x00, 0x20, 0x41}
	serialTMF8701 = [4]byte{0x33, 0x00, 0x10, 0x5e}
	testCalib     = []byte{0x41, 0x57, 0x01, 0xFD, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04}
)

// fakeSensor emulates the register map of a TMF8x01 behind an i2c.Bus.
type fakeSensor struct {
	mu   sync.Mutex
	regs [256]byte

	serial [4]byte
	calib  [14]byte
	// calibFailures is the number of factory calibration commands that never
	// complete.
	calibFailures int
	calibRequests int
	// bootloader makes the sensor start in its bootloader after a reset.
	bootloader bool
	// startFails keeps CONTENTS away from 0x55 after a measure command.
	startFails bool
	err        error
	// failures is the number of transactions failing before err applies.
	failures int

	writes     [][]byte
	commands   []byte
	frames     [][]byte
	loaded     []byte
	algo       []byte
	intClears  int
	measuring  bool
	lastConfig byte
}

func newFakeSensor(serial [4]byte) *fakeSensor {
	f := &fakeSensor{serial: serial}
	copy(f.calib[:], testCalib)
	f.regs[regEnable] = cpuReady
	f.regs[regAppID] = appMeasure
	f.regs[regVerMajor] = 0x01
	f.regs[regVerMinor] = 0x02
	f.regs[regVerPatch] = 0x0A
	f.regs[regVerChip] = 0x07
	return f
}

func (f *fakeSensor) String() string {
	return "fakeSensor"
}

func (f *fakeSensor) SetSpeed(physic.Frequency) error {
	return nil
}

func (f *fakeSensor) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errNack
	}
	if f.err != nil {
		return f.err
	}
	if addr != DefaultAddr {
		return errNack
	}
	if len(w) == 0 {
		return errors.New("fakeSensor: empty write")
	}
	reg := w[0]
	if len(w) > 1 {
		f.writes = append(f.writes, append([]byte(nil), w...))
		f.write(reg, w[1:])
		return nil
	}
	for i := range r {
		r[i] = f.regs[byte(int(reg)+i)]
	}
	return nil
}

func (f *fakeSensor) write(reg byte, data []byte) {
	switch reg {
	case regEnable:
		v := data[0]
		switch {
		case v&enableCPUReset != 0:
			f.regs[regEnable] = 0
			f.measuring = false
			if f.bootloader {
				f.regs[regAppID] = appBootloader
			} else {
				f.regs[regAppID] = appMeasure
			}
		case v&enablePON != 0:
			f.regs[regEnable] = cpuReady
		}
		return
	case regIntStatus:
		f.regs[regIntStatus] &^= data[0]
		f.intClears++
		return
	case regAppReqID:
		f.regs[regAppID] = data[0]
		return
	}
	if f.regs[regAppID] == appBootloader && reg == regBootloader {
		f.frames = append(f.frames, append([]byte(nil), data...))
		if data[0] == blRAMRemapReset {
			f.regs[regAppID] = appMeasure
			f.regs[regEnable] = cpuReady
		}
		copy(f.regs[regBootloader:], blAck)
		return
	}
	switch reg {
	case regResult:
		f.loaded = append([]byte(nil), data...)
	case regStateData:
		f.algo = append([]byte(nil), data...)
	}
	for i, b := range data {
		f.regs[byte(int(reg)+i)] = b
	}
	if int(reg) <= int(regCommand) && int(reg)+len(data) > int(regCommand) {
		f.command(f.regs[regCommand])
	}
}

func (f *fakeSensor) command(cmd byte) {
	f.commands = append(f.commands, cmd)
	switch cmd {
	case cmdSerialNumber:
		copy(f.regs[regSerial:], f.serial[:])
		f.regs[regContents] = contentsSerial
	case cmdFactoryCalib:
		f.calibRequests++
		if f.calibFailures > 0 {
			f.calibFailures--
			return
		}
		copy(f.regs[regResult:], f.calib[:])
		f.regs[regContents] = contentsCalib
	case cmdMeasure:
		if f.startFails {
			return
		}
		f.measuring = true
		f.regs[regContents] = contentsResult
	case cmdConfigureGPIO:
		f.lastConfig = f.regs[regCmdData0]
	case cmdStop:
		f.measuring = false
		f.regs[regContents] = 0
	}
}

// complete simulates the end of a ranging cycle.
func (f *fakeSensor) complete(mm uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[regStatus+2]++ // tid
	f.regs[regStatus+3]++ // result number
	f.regs[regStatus+4] = 0x3F
	f.regs[regStatus+5] = byte(mm)
	f.regs[regStatus+6] = byte(mm >> 8)
	f.regs[regIntStatus] |= intStatusResult
}

func (f *fakeSensor) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSensor) commandCount(cmd byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

// lastCommandSet returns the last measure command set written.
func (f *fakeSensor) lastCommandSet() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.writes) - 1; i >= 0; i-- {
		if w := f.writes[i]; w[0] == regCmdData7 && len(w) == 10 {
			return w[1:]
		}
	}
	return nil
}
