// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tinygobus exposes an I²C bus implementing the TinyGo drivers.I2C
// interface as a periph i2c.Bus, so the tmf8x01 driver runs on
// microcontrollers.
//
// On TinyGo, pass a configured *machine.I2C:
//
//	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
//	dev, err := tmf8x01.NewI2C(tinygobus.New(machine.I2C0, "I2C0"), nil)
package tinygobus

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// ErrSetSpeed is returned by SetSpeed; the speed is set when configuring
// the machine bus.
var ErrSetSpeed = errors.New("tinygobus: bus speed is set by the machine configuration")

// Bus adapts a drivers.I2C. Transactions are serialized.
type Bus struct {
	mu   sync.Mutex
	bus  drivers.I2C
	name string
}

var _ i2c.Bus = (*Bus)(nil)

// New returns a Bus named name.
func New(bus drivers.I2C, name string) *Bus {
	return &Bus{bus: bus, name: name}
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("tinygobus: invalid address 0x%x", addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.bus.Tx(addr, w, r); err != nil {
		return fmt.Errorf("tinygobus: %s: %w", b.name, err)
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return ErrSetSpeed
}

func (b *Bus) String() string {
	return b.name
}
