// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rangebar renders distances as a one line gauge on a terminal using
// ANSI color codes.
//
// The gauge fills from left to right, red when the target is close and green
// toward the full scale. It also implements display.Drawer so a 1 pixel high
// image can be drawn on it.
package rangebar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for the gauge.
type Opts struct {
	// Width is the number of cells. Default is 40.
	Width int
	// Max is the distance of a full gauge. Default is 60cm.
	Max     physic.Distance
	Palette *ansi256.Palette
	// Out defaults to a colorable stdout.
	Out io.Writer
}

// Dev is a distance gauge printed on the console.
type Dev struct {
	w       io.Writer
	max     physic.Distance
	palette ansi256.Palette

	cells []color.NRGBA
	label string
	buf   bytes.Buffer
}

// New returns a Dev printing at the console.
func New(opts *Opts) *Dev {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 {
		o.Width = 40
	}
	if o.Max <= 0 {
		o.Max = 600 * physic.MilliMetre
	}
	if o.Palette == nil {
		o.Palette = ansi256.Default
	}
	if o.Out == nil {
		o.Out = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       o.Out,
		max:     o.Max,
		palette: *o.Palette,
		cells:   make([]color.NRGBA, o.Width),
	}
}

func (d *Dev) String() string {
	return "RangeBar"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and moves to the next line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show fills the gauge up to dist and prints it, followed by dist in
// millimetres. Distances beyond the full scale fill the whole gauge.
func (d *Dev) Show(dist physic.Distance) error {
	n := filled(dist, d.max, len(d.cells))
	for i := range d.cells {
		if i < n {
			d.cells[i] = cellColor(i, len(d.cells))
		} else {
			d.cells[i] = color.NRGBA{A: 255}
		}
	}
	d.label = fmt.Sprintf("%dmm", dist/physic.MilliMetre)
	return d.refresh()
}

// filled returns the number of cells lit for dist.
func filled(dist, max physic.Distance, width int) int {
	switch {
	case dist <= 0:
		return 0
	case dist >= max:
		return width
	}
	return int(int64(dist) * int64(width) / int64(max))
}

// cellColor fades from red on the left to green on the right.
func cellColor(i, width int) color.NRGBA {
	if width < 2 {
		return color.NRGBA{R: 255, A: 255}
	}
	g := byte(255 * i / (width - 1))
	return color.NRGBA{R: 255 - g, G: g, A: 255}
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: len(d.cells), Y: 1}}
}

// Draw implements display.Drawer. Only the first row of src is used.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	for x := r.Min.X; x < r.Max.X; x++ {
		c := color.NRGBAModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y)).(color.NRGBA)
		c.A = 255
		d.cells[x] = c
	}
	d.label = ""
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for _, c := range d.cells {
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(d.label)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
