// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sink

import (
	"io"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

// lowReliability is the reliability under which a sample is shown as
// doubtful.
const lowReliability = 10

// Console prints one line per sample.
type Console struct {
	w      io.Writer
	good   *color.Color
	poor   *color.Color
	noTarg *color.Color
}

func NewConsole(w io.Writer) *Console {
	return &Console{
		w:      w,
		good:   color.New(color.FgGreen, color.Bold),
		poor:   color.New(color.FgYellow),
		noTarg: color.New(color.FgRed),
	}
}

func (c *Console) Write(s tmf8x01.Sample) error {
	var err error
	switch {
	case s.Reliability == 0:
		_, err = c.noTarg.Fprintf(c.w, "#%-3d no target\n", s.ResultNumber)
	case s.Reliability < lowReliability:
		_, err = c.poor.Fprintf(c.w, "#%-3d %5d mm (reliability %d)\n", s.ResultNumber, s.MM, s.Reliability)
	default:
		_, err = c.good.Fprintf(c.w, "#%-3d %5d mm (reliability %d)\n", s.ResultNumber, s.MM, s.Reliability)
	}
	return pkgerrors.Wrap(err, "console")
}

func (c *Console) Close() error {
	return nil
}
