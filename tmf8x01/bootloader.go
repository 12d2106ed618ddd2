// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"bytes"
	"fmt"

	"github.com/GermanBionicSystems/tof/common"
)

// Bootloader commands.
const (
	blDownloadInit  byte = 0x14
	blAddrRAM       byte = 0x43
	blWriteRAM      byte = 0x41
	blRAMRemapReset byte = 0x11

	// blDownloadSeed is the argument of blDownloadInit.
	blDownloadSeed byte = 0x29
	// maxRecord is the largest payload of a single blWriteRAM frame.
	maxRecord = 16
)

// blAck is the bootloader status after a successful command.
var blAck = []byte{0x00, 0x00, 0xFF}

// frame encodes a bootloader command: cmd, payload length, payload, then the
// complement of the byte sum of everything before it.
func frame(cmd byte, payload ...byte) []byte {
	f := make([]byte, 0, len(payload)+3)
	f = append(f, cmd, byte(len(payload)))
	f = append(f, payload...)
	return append(f, common.SumComplement(f))
}

// patchRecords splits a RAM patch image into its records. The image is a
// sequence of length prefixed records terminated by a zero length.
func patchRecords(image []byte) ([][]byte, error) {
	var out [][]byte
	for i := 0; i < len(image); {
		n := int(image[i])
		i++
		if n == 0 {
			return out, nil
		}
		if n > maxRecord {
			return nil, fmt.Errorf("%w: patch record at offset %d is %d bytes, max %d", ErrBootloader, i-1, n, maxRecord)
		}
		if i+n > len(image) {
			return nil, fmt.Errorf("%w: patch record at offset %d truncated", ErrBootloader, i-1)
		}
		out = append(out, image[i:i+n])
		i += n
	}
	return nil, fmt.Errorf("%w: patch image is not terminated", ErrBootloader)
}

// bootloader drives the ROM bootloader. It is only valid while APPID reports
// appBootloader.
type bootloader struct {
	t *transport
}

func (b *bootloader) send(f []byte) error {
	if err := b.t.writeReg(regBootloader, f...); err != nil {
		return err
	}
	var status [3]byte
	if err := b.t.readReg(regBootloader, status[:]); err != nil {
		return err
	}
	if !bytes.Equal(status[:], blAck) {
		return fmt.Errorf("%w: command 0x%02x status % x", ErrBootloader, f[0], status[:])
	}
	return nil
}

// download writes the patch records to RAM at address 0 then remaps RAM and
// resets the CPU. The caller waits for the CPU and the application afterward.
func (b *bootloader) download(image []byte) error {
	records, err := patchRecords(image)
	if err != nil {
		return err
	}
	if err := b.send(frame(blDownloadInit, blDownloadSeed)); err != nil {
		return err
	}
	if err := b.send(frame(blAddrRAM, 0x00, 0x00)); err != nil {
		return err
	}
	for i, rec := range records {
		if err := b.send(frame(blWriteRAM, rec...)); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	b.t.debug("downloaded %d patch records", len(records))
	return b.t.writeReg(regBootloader, frame(blRAMRemapReset)...)
}
