// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package calibration holds the factory calibration data and algorithm state
// of TMF8x01 time-of-flight sensors.
//
// The sensor produces a 14 byte calibration blob when asked to calibrate
// under controlled conditions: no target within 40cm and dark ambient light.
// The blob is opaque; it is kept off-device and pushed back into the sensor
// before every measurement session.
package calibration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Size is the length in bytes of a calibration blob.
const Size = 14

// AlgoStateSize is the length in bytes of the algorithm state.
const AlgoStateSize = 11

// ErrInvalidLength is returned when a blob does not have the expected length.
var ErrInvalidLength = errors.New("calibration: invalid length")

// Data is a calibration blob as produced by the sensor.
type Data [Size]byte

// AlgoState is the algorithm state pushed along with the calibration blob
// when ranging with calibration and algorithm state.
type AlgoState [AlgoStateSize]byte

// DefaultAlgoState is the initial algorithm state documented by the vendor.
var DefaultAlgoState = AlgoState{0xB1, 0xA9, 0x02}

// Valid returns true if b has the length of a calibration blob.
func Valid(b []byte) bool {
	return len(b) == Size
}

// Parse copies b into a Data. It fails with ErrInvalidLength unless b is
// exactly Size bytes long.
func Parse(b []byte) (Data, error) {
	var d Data
	if !Valid(b) {
		return d, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(b), Size)
	}
	copy(d[:], b)
	return d, nil
}

// ParseAlgoState copies b into an AlgoState.
func ParseAlgoState(b []byte) (AlgoState, error) {
	var s AlgoState
	if len(b) != AlgoStateSize {
		return s, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(b), AlgoStateSize)
	}
	copy(s[:], b)
	return s, nil
}

// Bytes returns a copy of the blob.
func (d Data) Bytes() []byte {
	return append([]byte(nil), d[:]...)
}

// String returns the blob as a comma separated list of hex bytes, the format
// accepted by UnmarshalText.
func (d Data) String() string {
	return formatHex(d[:])
}

// MarshalBinary implements encoding.BinaryMarshaler. The persisted form is the
// raw blob with no header nor checksum.
func (d Data) MarshalBinary() ([]byte, error) {
	return d.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Data) UnmarshalBinary(b []byte) error {
	v, err := Parse(b)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Data) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts a comma or
// space separated list of bytes, each in any base understood by
// strconv.ParseUint with base 0, e.g. "0x41,0x57,0x01,...".
func (d *Data) UnmarshalText(text []byte) error {
	b, err := parseHex(string(text))
	if err != nil {
		return err
	}
	return d.UnmarshalBinary(b)
}

// String returns the state as a comma separated list of hex bytes.
func (s AlgoState) String() string {
	return formatHex(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s AlgoState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AlgoState) UnmarshalText(text []byte) error {
	b, err := parseHex(string(text))
	if err != nil {
		return err
	}
	v, err := ParseAlgoState(b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Store holds the calibration blob applied by a driver. A failed Set leaves
// the previously stored blob untouched.
//
// It is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	d   Data
	set bool
}

// Set validates b and stores it.
func (s *Store) Set(b []byte) error {
	d, err := Parse(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.d = d
	s.set = true
	s.mu.Unlock()
	return nil
}

// Get returns the stored blob and whether one was stored.
func (s *Store) Get() (Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d, s.set
}

// Clear forgets the stored blob.
func (s *Store) Clear() {
	s.mu.Lock()
	s.d = Data{}
	s.set = false
	s.mu.Unlock()
}

func formatHex(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i != 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "0x%02X", v)
	}
	return sb.String()
}

func parseHex(s string) ([]byte, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '[' || r == ']'
	})
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("calibration: invalid byte %q: %w", f, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
