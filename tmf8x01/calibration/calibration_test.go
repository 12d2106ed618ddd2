// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var sample = []byte{0x41, 0x57, 0x01, 0xFD, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04}

func TestValid(t *testing.T) {
	for _, tc := range []struct {
		name string
		b    []byte
		want bool
	}{
		{name: "nil"},
		{name: "short", b: sample[:13]},
		{name: "exact", b: sample, want: true},
		{name: "long", b: append(append([]byte{}, sample...), 0)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := Valid(tc.b); got != tc.want {
				t.Errorf("Valid(%d bytes) = %t, want %t", len(tc.b), got, tc.want)
			}
		})
	}
}

func TestParseInvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, 13, 15, 32} {
		if _, err := Parse(make([]byte, n)); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("Parse(%d bytes) = %v, want ErrInvalidLength", n, err)
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	var d Data
	if err := d.UnmarshalBinary(sample); err != nil {
		t.Fatal(err)
	}
	b, err := d.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(b, sample); diff != "" {
		t.Errorf("MarshalBinary() difference (-got +want):\n%s", diff)
	}
}

func TestText(t *testing.T) {
	d, err := Parse(sample)
	if err != nil {
		t.Fatal(err)
	}
	const want = "0x41,0x57,0x01,0xFD,0x04,0x00,0x00,0x00,0x00,0x00,0x00,0x00,0x00,0x04"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	var got Data
	if err := got.UnmarshalText([]byte("[65, 87, 1, 253, 4, 0, 0, 0, 0, 0, 0, 0, 0, 4]")); err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Errorf("UnmarshalText() = %v, want %v", got, d)
	}
	if err := got.UnmarshalText([]byte("0x41,0x57")); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("UnmarshalText(short) = %v, want ErrInvalidLength", err)
	}
	if err := got.UnmarshalText([]byte("0x41,zz")); err == nil {
		t.Error("UnmarshalText(garbage) succeeded")
	}
}

func TestAlgoState(t *testing.T) {
	var s AlgoState
	if err := s.UnmarshalText([]byte(DefaultAlgoState.String())); err != nil {
		t.Fatal(err)
	}
	if s != DefaultAlgoState {
		t.Errorf("got %v, want %v", s, DefaultAlgoState)
	}
	if _, err := ParseAlgoState(make([]byte, Size)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("ParseAlgoState(14 bytes) = %v, want ErrInvalidLength", err)
	}
}

func TestStoreKeepsPreviousOnInvalid(t *testing.T) {
	var s Store
	if _, ok := s.Get(); ok {
		t.Fatal("empty store reports a blob")
	}
	if err := s.Set(sample); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(sample[:5]); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("Set(short) = %v, want ErrInvalidLength", err)
	}
	got, ok := s.Get()
	if !ok {
		t.Fatal("blob lost after invalid Set")
	}
	if diff := cmp.Diff(got.Bytes(), sample); diff != "" {
		t.Errorf("Get() difference (-got +want):\n%s", diff)
	}
	s.Clear()
	if _, ok := s.Get(); ok {
		t.Error("Clear() kept the blob")
	}
}

func TestFile(t *testing.T) {
	f := &File{Path: filepath.Join(t.TempDir(), "tmf8x01.cal")}
	if _, err := f.Load(); !os.IsNotExist(err) {
		t.Fatalf("Load() on missing file = %v", err)
	}
	d, _ := Parse(sample)
	if err := f.Save(d); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(raw, sample); diff != "" {
		t.Errorf("file content difference (-got +want):\n%s", diff)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Errorf("Load() = %v, want %v", got, d)
	}

	if err := os.WriteFile(f.Path, sample[:3], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Load(); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Load(truncated) = %v, want ErrInvalidLength", err)
	}
}
