//go:build examples
// +build examples

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/tof/tmf8x01"
	"github.com/cenkalti/backoff/v4"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := tmf8x01.NewI2C(bus, nil)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	if err := dev.BeginWithRetry(ctx, backoff.NewConstantBackOff(time.Second)); err != nil {
		log.Fatal(err)
	}
	id, err := dev.Identity()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s version %s, unique id %X\n", id.Model, id.Version, id.UniqueID)

	// Capture the calibration with no target within 40cm, in the dark.
	calib, err := dev.CaptureCalibration(ctx, backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 10))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("calibration:", calib)
	if err := dev.SetCalibrationData(calib.Bytes()); err != nil {
		log.Fatal(err)
	}

	if p := gpioreg.ByName("GPIO4"); p != nil {
		if err := dev.EnableIntPin(p); err != nil {
			log.Fatal(err)
		}
	}
	if err := dev.StartMeasurement(tmf8x01.WithCalibration, tmf8x01.ModeCombined); err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()
	for i := 0; i < 10; i++ {
		s, err := dev.WaitForSample(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s (reliability %d)\n", s.Distance, s.Reliability)
	}
}
