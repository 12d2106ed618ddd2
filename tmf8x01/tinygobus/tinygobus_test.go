// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tinygobus

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

type tx struct {
	Addr uint16
	W    []byte
	R    int
}

// recorder implements drivers.I2C.
type recorder struct {
	txs   []tx
	reply []byte
	err   error
}

func (r *recorder) Tx(addr uint16, w, rd []byte) error {
	r.txs = append(r.txs, tx{Addr: addr, W: append([]byte(nil), w...), R: len(rd)})
	copy(rd, r.reply)
	return r.err
}

func (r *recorder) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return r.Tx(uint16(addr), []byte{reg}, buf)
}

func (r *recorder) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return r.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}

func TestTx(t *testing.T) {
	rec := &recorder{reply: []byte{0xC0}}
	d := &i2c.Dev{Bus: New(rec, "I2C0"), Addr: 0x41}
	var b [1]byte
	if err := d.Tx([]byte{0x00}, b[:]); err != nil {
		t.Fatal(err)
	}
	if err := d.Tx([]byte{0x10, 0xFF}, nil); err != nil {
		t.Fatal(err)
	}
	if b[0] != 0xC0 {
		t.Errorf("read %#x", b[0])
	}
	want := []tx{{0x41, []byte{0x00}, 1}, {0x41, []byte{0x10, 0xFF}, 0}}
	if diff := cmp.Diff(rec.txs, want); diff != "" {
		t.Errorf("transactions difference (-got +want):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	errBus := errors.New("machine: I2C timeout")
	b := New(&recorder{err: errBus}, "I2C1")
	if err := b.Tx(0x41, []byte{0}, nil); !errors.Is(err, errBus) {
		t.Errorf("Tx() = %v", err)
	}
	if err := b.Tx(0x80, []byte{0}, nil); err == nil {
		t.Error("Tx() to a 10 bit address succeeded")
	}
	if err := b.SetSpeed(400 * physic.KiloHertz); !errors.Is(err, ErrSetSpeed) {
		t.Errorf("SetSpeed() = %v", err)
	}
	if s := b.String(); s != "I2C1" {
		t.Errorf("String() = %q", s)
	}
}
