// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sink

import (
	"github.com/GermanBionicSystems/tof/rangebar"
	"github.com/GermanBionicSystems/tof/tmf8x01"
)

// Bar shows the samples on a rangebar gauge.
type Bar struct {
	d *rangebar.Dev
}

func NewBar(d *rangebar.Dev) *Bar {
	return &Bar{d: d}
}

func (b *Bar) Write(s tmf8x01.Sample) error {
	if s.Reliability == 0 {
		return b.d.Show(0)
	}
	return b.d.Show(s.Distance)
}

func (b *Bar) Close() error {
	return b.d.Halt()
}
