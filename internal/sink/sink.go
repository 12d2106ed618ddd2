// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sink delivers distance samples to their consumers: the console, a
// terminal gauge, an MQTT broker or a SQLite database.
package sink

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

// Sink consumes the samples of one sensor.
type Sink interface {
	Write(s tmf8x01.Sample) error
	Close() error
}

// SensorID formats a sensor unique ID the way sinks label it.
func SensorID(id uint32) string {
	return fmt.Sprintf("%08X", id)
}

type multi []Sink

// Multi returns a Sink writing to every sink in order. A failing sink does
// not prevent the others from receiving the sample.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Write(s tmf8x01.Sample) error {
	var errs []error
	for _, k := range m {
		if err := k.Write(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, k := range m {
		if err := k.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
