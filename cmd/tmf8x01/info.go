// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/tof/tmf8x01"
)

func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Short:   "Print the sensor identity",
		GroupID: gSensor,
		Long: `Print the sensor identity.

Brings the sensor up and prints its model, unique ID, firmware version,
supported ranging modes and junction temperature.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			dev, bus, err := openDevice(ctx)
			if err != nil {
				return err
			}
			defer bus.Close()
			defer dev.Halt()

			id, err := dev.Identity()
			if err != nil {
				return err
			}
			bold := color.New(color.Bold).SprintFunc()
			w := cmd.OutOrStdout()
			cmd.Printf("%s %s\n", bold("Model:"), id.Model)
			cmd.Printf("%s %X\n", bold("Unique ID:"), id.UniqueID)
			cmd.Printf("%s %s\n", bold("Software version:"), id.Version)
			for _, rm := range []tmf8x01.RangingMode{tmf8x01.ModeProximity, tmf8x01.ModeDistance, tmf8x01.ModeCombined} {
				near, far, err := id.Model.Range(rm)
				if err != nil {
					continue
				}
				color.New(color.FgCyan).Fprintf(w, "  %-10s %s to %s\n", rm, near, far)
			}
			if t, err := dev.JunctionTemperature(); err != nil {
				logrus.WithError(err).Warn("failed to read the junction temperature")
			} else {
				cmd.Printf("%s %s\n", bold("Junction temperature:"), t)
			}
			return nil
		},
	}
}
