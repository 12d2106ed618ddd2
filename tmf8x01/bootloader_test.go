// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestFrame(t *testing.T) {
	for _, tc := range []struct {
		cmd     byte
		payload []byte
		want    []byte
	}{
		{blDownloadInit, []byte{blDownloadSeed}, []byte{0x14, 0x01, 0x29, 0xC1}},
		{blAddrRAM, []byte{0x00, 0x00}, []byte{0x43, 0x02, 0x00, 0x00, 0xBA}},
		{blRAMRemapReset, nil, []byte{0x11, 0x00, 0xEE}},
	} {
		if diff := cmp.Diff(frame(tc.cmd, tc.payload...), tc.want); diff != "" {
			t.Errorf("frame(%#x) difference (-got +want):\n%s", tc.cmd, diff)
		}
	}
}

func TestPatchRecords(t *testing.T) {
	for _, tc := range []struct {
		name  string
		image []byte
		want  [][]byte
		err   bool
	}{
		{name: "empty image", image: []byte{0}},
		{name: "records", image: []byte{1, 0xAA, 2, 0xBB, 0xCC, 0, 0xFF}, want: [][]byte{{0xAA}, {0xBB, 0xCC}}},
		{name: "unterminated", image: []byte{1, 0xAA}, err: true},
		{name: "truncated", image: []byte{3, 0xAA}, err: true},
		{name: "oversized", image: append([]byte{17}, make([]byte, 18)...), err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := patchRecords(tc.image)
			if tc.err {
				if !errors.Is(err, ErrBootloader) {
					t.Fatalf("patchRecords() = %v, want ErrBootloader", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got, tc.want, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("patchRecords() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDownloadNack(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{regBootloader, 0x14, 0x01, 0x29, 0xC1}},
			{Addr: addr, W: []byte{regBootloader}, R: []byte{0x00, 0x01, 0xFF}},
		},
	}
	bl := &bootloader{t: newRegisters(&bus).t}
	if err := bl.download([]byte{1, 0xAA, 0}); !errors.Is(err, ErrBootloader) {
		t.Errorf("download() = %v, want ErrBootloader", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}
