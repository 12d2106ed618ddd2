// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/tof/internal/sink"
	"github.com/GermanBionicSystems/tof/rangebar"
	"github.com/GermanBionicSystems/tof/tmf8x01"
	"github.com/GermanBionicSystems/tof/tmf8x01/calibration"
)

type measureFlags struct {
	calibMode  string
	mode       string
	calibFile  string
	intPin     string
	bar        bool
	mqttBroker string
	mqttTopic  string
	db         string
	count      int
}

func NewMeasureCommand() *cobra.Command {
	var f measureFlags
	cmd := &cobra.Command{
		Use:     "measure",
		Short:   "Stream distance samples",
		GroupID: gMeasurement,
		Long: `Stream distance samples.

Samples are printed until --count samples were read or the command is
interrupted. They can also be shown on a gauge, published to an MQTT broker
and appended to a SQLite database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return measure(ctx, cmd, &f)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.calibMode, "calib-mode", "calib-algo", "calibration pushed at start (none, calib, calib-algo)")
	fs.StringVar(&f.mode, "mode", "combined", "ranging mode (proximity, distance, combined)")
	fs.StringVar(&f.calibFile, "calib-file", "", "calibration saved by 'tmf8x01 calibrate'")
	fs.StringVar(&f.intPin, "int-pin", "", "GPIO wired to INT, polls the sensor if empty")
	fs.BoolVar(&f.bar, "bar", false, "show the samples on a gauge instead of lines")
	fs.StringVar(&f.mqttBroker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	fs.StringVar(&f.mqttTopic, "mqtt-topic", "tof/%s/distance", "MQTT topic, %s is the sensor unique ID")
	fs.StringVar(&f.db, "db", "", "SQLite database receiving the samples")
	fs.IntVarP(&f.count, "count", "n", 0, "number of samples, 0 for no limit")
	return cmd
}

func measure(ctx context.Context, cmd *cobra.Command, f *measureFlags) error {
	cm, err := parseCalibrationMode(f.calibMode)
	if err != nil {
		return err
	}
	rm, err := parseRangingMode(f.mode)
	if err != nil {
		return err
	}
	dev, bus, err := openDevice(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()
	defer func() {
		if err := dev.Halt(); err != nil {
			logrus.WithError(err).Warn("failed to stop the sensor")
		}
	}()

	if cm != tmf8x01.NoCalibration && f.calibFile != "" {
		c, err := (&calibration.File{Path: f.calibFile}).Load()
		switch {
		case errors.Is(err, os.ErrNotExist):
			logrus.Warnf("no calibration at %s", f.calibFile)
		case err != nil:
			return err
		default:
			if err := dev.SetCalibrationData(c.Bytes()); err != nil {
				return err
			}
		}
	}
	// Pins are registered by host.Init in openDevice.
	intPin, err := findPin(f.intPin)
	if err != nil {
		return err
	}
	if intPin != nil {
		if err := dev.EnableIntPin(intPin); err != nil {
			return pkgerrors.Wrap(err, "interrupt pin")
		}
	}

	id, err := dev.Identity()
	if err != nil {
		return err
	}
	out, err := openSinks(ctx, cmd, f, id, rm)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close sinks")
		}
	}()

	if err := dev.StartMeasurement(cm, rm); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"mode": rm, "calibration": cm}).Info("measuring")
	for n := 0; f.count == 0 || n < f.count; n++ {
		s, err := dev.WaitForSample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if err := out.Write(s); err != nil {
			logrus.WithError(err).Warn("failed to deliver sample")
		}
	}
	return dev.StopMeasurement()
}

func openSinks(ctx context.Context, cmd *cobra.Command, f *measureFlags, id tmf8x01.Identity, rm tmf8x01.RangingMode) (sink.Sink, error) {
	var sinks []sink.Sink
	closeAll := func() { _ = sink.Multi(sinks...).Close() }
	if f.bar {
		_, far, err := id.Model.Range(rm)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewBar(rangebar.New(&rangebar.Opts{Max: far})))
	} else {
		sinks = append(sinks, sink.NewConsole(cmd.OutOrStdout()))
	}
	if f.mqttBroker != "" {
		m, err := sink.NewMQTT(ctx, f.mqttBroker, conf.MQTTClientID(), f.mqttTopic, id.UniqueID)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, m)
	}
	if f.db != "" {
		s, err := sink.OpenSQLite(f.db, id.UniqueID)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sink.Multi(sinks...), nil
}
