// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/tof/tmf8x01/calibration"
)

func NewCalibrateCommand() *cobra.Command {
	var (
		out      string
		attempts uint64
	)
	cmd := &cobra.Command{
		Use:     "calibrate",
		Short:   "Capture the factory calibration",
		GroupID: gSensor,
		Long: `Capture the factory calibration.

Keep the sensor in the dark with no target within 40cm while it runs. The
calibration is printed and saved to the output file, to be loaded by
'tmf8x01 measure'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			dev, bus, err := openDevice(ctx)
			if err != nil {
				return err
			}
			defer bus.Close()
			defer dev.Halt()

			logrus.Info("capturing calibration, keep the field of view clear")
			b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), attempts), ctx)
			d, err := dev.CaptureCalibration(ctx, b)
			if err != nil {
				return err
			}
			cmd.Println(d)
			if out == "" {
				return nil
			}
			f := calibration.File{Path: out}
			if err := f.Save(d); err != nil {
				return err
			}
			logrus.Infof("calibration saved to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file receiving the calibration")
	cmd.Flags().Uint64Var(&attempts, "attempts", 10, "capture retries")
	return cmd
}
