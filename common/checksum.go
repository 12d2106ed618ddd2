// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the frame checksum of a bootloader protocol.
package common

// SumComplement returns the one's complement of the 8-bit sum of bytes. ams
// sensor bootloaders append it to every command frame.
func SumComplement(bytes []byte) byte {
	var sum byte
	for _, val := range bytes {
		sum += val
	}
	return sum ^ 0xff
}
