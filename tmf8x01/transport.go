// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

func noop(string, ...interface{}) {}

// sleep is replaced in tests.
var sleep = time.Sleep

// transport issues register transactions to the sensor. Every method maps to
// exactly one I²C transaction.
type transport struct {
	d     *i2c.Dev
	debug DebugF
}

func (t *transport) readReg(reg byte, r []byte) error {
	if err := t.d.Tx([]byte{reg}, r); err != nil {
		return &BusError{Op: "read", Reg: reg, Err: err}
	}
	t.debug("read register %#02x: % x", reg, r)
	return nil
}

func (t *transport) readByte(reg byte) (byte, error) {
	var b [1]byte
	err := t.readReg(reg, b[:])
	return b[0], err
}

func (t *transport) writeReg(reg byte, data ...byte) error {
	w := make([]byte, 0, 1+len(data))
	w = append(w, reg)
	w = append(w, data...)
	t.debug("write register %#02x: % x", reg, data)
	if err := t.d.Tx(w, nil); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

// poll reads reg every step until match returns true or timeout elapsed. The
// returned bool reports whether match succeeded.
func (t *transport) poll(reg byte, timeout, step time.Duration, match func(byte) bool) (bool, error) {
	for elapsed := time.Duration(0); elapsed < timeout; elapsed += step {
		sleep(step)
		v, err := t.readByte(reg)
		if err != nil {
			return false, err
		}
		if match(v) {
			return true, nil
		}
	}
	return false, nil
}
