// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rangebar

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
	"periph.io/x/conn/v3/physic"
)

func expected(cells []color.NRGBA, label string) string {
	s := "\r\033[0m"
	for _, c := range cells {
		s += ansi256.Default.Block(c)
	}
	return s + "\033[0m " + label
}

func TestShow(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{Width: 4, Max: 400 * physic.MilliMetre, Out: &buf})
	if err := d.Show(200 * physic.MilliMetre); err != nil {
		t.Fatal(err)
	}
	black := color.NRGBA{A: 255}
	want := expected([]color.NRGBA{cellColor(0, 4), cellColor(1, 4), black, black}, "200mm")
	if got := buf.String(); got != want {
		t.Errorf("Show() = %q, want %q", got, want)
	}
}

func TestFilled(t *testing.T) {
	max := 600 * physic.MilliMetre
	for _, tc := range []struct {
		dist physic.Distance
		want int
	}{
		{-physic.MilliMetre, 0},
		{0, 0},
		{59 * physic.MilliMetre, 0},
		{60 * physic.MilliMetre, 1},
		{300 * physic.MilliMetre, 5},
		{max, 10},
		{2 * max, 10},
	} {
		if got := filled(tc.dist, max, 10); got != tc.want {
			t.Errorf("filled(%s) = %d, want %d", tc.dist, got, tc.want)
		}
	}
}

func TestCellColor(t *testing.T) {
	if c := cellColor(0, 5); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("first cell = %v", c)
	}
	if c := cellColor(4, 5); c != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("last cell = %v", c)
	}
}

func TestDraw(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{Width: 3, Out: &buf})
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	blue := color.NRGBA{B: 255, A: 255}
	img.Set(1, 0, blue)
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	black := color.NRGBA{A: 255}
	if got, want := buf.String(), expected([]color.NRGBA{black, blue, black}, ""); got != want {
		t.Errorf("Draw() = %q, want %q", got, want)
	}
	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\033[0m") {
		t.Errorf("Halt() = %q", buf.String())
	}
	if d.String() != "RangeBar" {
		t.Error(d.String())
	}
}
