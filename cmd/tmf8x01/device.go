// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

// deviceFlags are shared by every command talking to the sensor.
var deviceFlags struct {
	bus           string
	addr          uint16
	model         string
	enablePin     string
	retries       int
	retryInterval time.Duration
}

func addDeviceFlags(f *pflag.FlagSet) {
	f.StringVar(&deviceFlags.bus, "bus", "", "I²C bus name, first one if empty")
	f.Uint16Var(&deviceFlags.addr, "addr", tmf8x01.DefaultAddr, "I²C address of the sensor")
	f.StringVar(&deviceFlags.model, "model", "auto", "sensor model (auto, tmf8801, tmf8701)")
	f.StringVar(&deviceFlags.enablePin, "enable-pin", "", "GPIO wired to EN, optional")
	f.IntVar(&deviceFlags.retries, "retries", 3, "bring-up attempts after the first one")
	f.DurationVar(&deviceFlags.retryInterval, "retry-interval", 200*time.Millisecond, "delay between bring-up attempts")
}

// applyConfig fills the flags not given on the command line from the config
// file.
func applyConfig(c *cobra.Command) error {
	fs := c.Flags()
	set := func(name, value string) error {
		if fs.Lookup(name) == nil || fs.Changed(name) {
			return nil
		}
		return pkgerrors.Wrapf(fs.Set(name, value), "config %s", name)
	}
	for name, value := range map[string]string{
		"bus":            conf.Bus(),
		"addr":           fmt.Sprint(conf.Addr()),
		"model":          conf.Model(),
		"enable-pin":     conf.EnablePin(),
		"retries":        fmt.Sprint(conf.Retries()),
		"retry-interval": conf.RetryInterval().String(),
		"int-pin":        conf.IntPin(),
		"calib-mode":     conf.CalibrationMode(),
		"mode":           conf.RangingMode(),
		"calib-file":     conf.CalibrationFile(),
		"out":            conf.CalibrationFile(),
		"mqtt-broker":    conf.MQTTBroker(),
		"mqtt-topic":     conf.MQTTTopic(),
		"db":             conf.Database(),
	} {
		if err := set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func parseModel(s string) (tmf8x01.Model, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return tmf8x01.ModelAuto, nil
	case "tmf8801":
		return tmf8x01.TMF8801, nil
	case "tmf8701":
		return tmf8x01.TMF8701, nil
	}
	return 0, fmt.Errorf("unknown model %q", s)
}

func parseRangingMode(s string) (tmf8x01.RangingMode, error) {
	for _, m := range []tmf8x01.RangingMode{tmf8x01.ModeProximity, tmf8x01.ModeDistance, tmf8x01.ModeCombined} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown ranging mode %q", s)
}

func parseCalibrationMode(s string) (tmf8x01.CalibrationMode, error) {
	for _, m := range []tmf8x01.CalibrationMode{tmf8x01.NoCalibration, tmf8x01.WithCalibration, tmf8x01.WithCalibrationAndAlgoState} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown calibration mode %q", s)
}

func findPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no GPIO named %q", name)
	}
	return p, nil
}

func retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(deviceFlags.retryInterval), uint64(max(deviceFlags.retries, 0)))
	return backoff.WithContext(b, ctx)
}

// openDevice initializes the host, opens the bus and brings the sensor up.
// The returned closer releases the bus.
func openDevice(ctx context.Context) (*tmf8x01.Dev, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, pkgerrors.Wrap(err, "host init")
	}
	model, err := parseModel(deviceFlags.model)
	if err != nil {
		return nil, nil, err
	}
	en, err := findPin(deviceFlags.enablePin)
	if err != nil {
		return nil, nil, err
	}
	bus, err := i2creg.Open(deviceFlags.bus)
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "open bus %q", deviceFlags.bus)
	}
	opts := tmf8x01.DefaultOpts
	opts.Addr = deviceFlags.addr
	opts.Model = model
	if en != nil {
		opts.EnablePin = en
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		opts.Debug = logrus.Debugf
	}
	dev, err := tmf8x01.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{"bus": bus, "addr": fmt.Sprintf("%#x", opts.Addr)}).Debug("bringing up sensor")
	if err := dev.BeginWithRetry(ctx, retryPolicy(ctx)); err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return dev, bus, nil
}
