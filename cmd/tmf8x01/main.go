// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tmf8x01 reads a TMF8801 or TMF8701 time-of-flight sensor.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GermanBionicSystems/tof/internal/config"
	"github.com/GermanBionicSystems/tof/tmf8x01"
)

var (
	logLevel   = "info"
	configPath = config.DefaultPath
	conf       *config.File
)

var (
	gSensor       = "Sensor:"
	gMeasurement  = "Measurement:"
	commandGroups = []string{
		gSensor,
		gMeasurement,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		})
	}
	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, tmf8x01.ErrInitializationFailed):
		fmt.Fprintln(os.Stderr, "\nError: the sensor did not come up")
		fmt.Fprintln(os.Stderr, "  - Check the wiring, the I²C address and that EN is high")
	case errors.Is(err, tmf8x01.ErrMissingCalibration):
		fmt.Fprintln(os.Stderr, "\nError: no calibration data")
		fmt.Fprintln(os.Stderr, "  - Run 'tmf8x01 calibrate' first, or measure with '--calib-mode none'")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmf8x01",
		Short: "tmf8x01 reads distances from an ams TMF8801 or TMF8701 sensor",
		Long: `tmf8x01 reads distances from an ams TMF8801 or TMF8701 time-of-flight
sensor over I²C.

Settings are read from the config file and can be overridden by flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			var err error
			if conf, err = config.NewFile(configPath); err != nil {
				return err
			}
			return applyConfig(c)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	addDeviceFlags(globalFlags)

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewInfoCommand(),
		NewCalibrateCommand(),
		NewMeasureCommand(),
	)

	return cmd
}
