// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the settings shared by the tmf8x01 commands from a
// JSON file. Missing keys take their default value.
package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultPath is where the commands look for the configuration.
const DefaultPath = "/etc/tmf8x01.json"

var defaultFileConfig = &RawFileConfig{
	Bus:             to(""),
	Addr:            to(0x41),
	Model:           to("auto"),
	EnablePin:       to(""),
	IntPin:          to(""),
	CalibrationFile: to("tmf8x01.calib"),
	CalibrationMode: to("calib-algo"),
	RangingMode:     to("combined"),
	Retries:         to(3),
	RetryInterval:   to("200ms"),
	MQTTTopic:       to("tof/%s/distance"),
	MQTTClientID:    to("tmf8x01"),
}

// RawFileConfig is the file content. Every field is optional.
type RawFileConfig struct {
	Bus             *string `json:"bus,omitempty"`
	Addr            *int    `json:"addr,omitempty"`
	Model           *string `json:"model,omitempty"`
	EnablePin       *string `json:"enablePin,omitempty"`
	IntPin          *string `json:"intPin,omitempty"`
	CalibrationFile *string `json:"calibrationFile,omitempty"`
	CalibrationMode *string `json:"calibrationMode,omitempty"`
	RangingMode     *string `json:"rangingMode,omitempty"`
	Retries         *int    `json:"retries,omitempty"`
	RetryInterval   *string `json:"retryInterval,omitempty"`
	MQTTBroker      *string `json:"mqttBroker,omitempty"`
	MQTTTopic       *string `json:"mqttTopic,omitempty"`
	MQTTClientID    *string `json:"mqttClientID,omitempty"`
	Database        *string `json:"database,omitempty"`
}

func to[T any](v T) *T {
	return &v
}

func or[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	if def != nil {
		return *def
	}
	var zero T
	return zero
}

// File is a configuration backed by a JSON file.
type File struct {
	c        *RawFileConfig
	filepath string
}

// NewFile loads the configuration at path. A missing file yields the
// defaults.
func NewFile(path string) (*File, error) {
	f := &File{filepath: path}
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads the file again.
func (f *File) Load() error {
	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", f.filepath).Debug("config file not found, using defaults")
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open config file %s", f.filepath)
	}
	defer fp.Close()
	return f.decode(fp)
}

func (f *File) decode(r io.Reader) error {
	c := &RawFileConfig{}
	if err := json.NewDecoder(r).Decode(c); err != nil && err != io.EOF {
		return pkgerrors.Wrapf(err, "failed to decode config file %s", f.filepath)
	}
	if c.Addr != nil && (*c.Addr < 0 || *c.Addr > 0x7F) {
		return pkgerrors.Errorf("config file %s: addr %#x is not a 7 bit I²C address", f.filepath, *c.Addr)
	}
	if _, err := parseDuration(c.RetryInterval); err != nil {
		return pkgerrors.Wrapf(err, "config file %s", f.filepath)
	}
	f.c = c
	return nil
}

// Save writes the configuration back, including unset keys with their
// defaults.
func (f *File) Save() error {
	raw := &RawFileConfig{
		Bus:             to(f.Bus()),
		Addr:            to(int(f.Addr())),
		Model:           to(f.Model()),
		EnablePin:       to(f.EnablePin()),
		IntPin:          to(f.IntPin()),
		CalibrationFile: to(f.CalibrationFile()),
		CalibrationMode: to(f.CalibrationMode()),
		RangingMode:     to(f.RangingMode()),
		Retries:         to(f.Retries()),
		RetryInterval:   to(f.RetryInterval().String()),
		MQTTBroker:      to(f.MQTTBroker()),
		MQTTTopic:       to(f.MQTTTopic()),
		MQTTClientID:    to(f.MQTTClientID()),
		Database:        to(f.Database()),
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(f.filepath, append(b, '\n'), 0o644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write config file %s", f.filepath)
	}
	return nil
}

func (f *File) raw() *RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}
	return f.c
}

// Bus is the I²C bus name, empty for the first one.
func (f *File) Bus() string { return or(f.raw().Bus, defaultFileConfig.Bus) }

// Addr is the device address.
func (f *File) Addr() uint16 { return uint16(or(f.raw().Addr, defaultFileConfig.Addr)) }

// Model is one of auto, tmf8801 or tmf8701.
func (f *File) Model() string { return or(f.raw().Model, defaultFileConfig.Model) }

func (f *File) EnablePin() string { return or(f.raw().EnablePin, defaultFileConfig.EnablePin) }

func (f *File) IntPin() string { return or(f.raw().IntPin, defaultFileConfig.IntPin) }

func (f *File) CalibrationFile() string {
	return or(f.raw().CalibrationFile, defaultFileConfig.CalibrationFile)
}

func (f *File) CalibrationMode() string {
	return or(f.raw().CalibrationMode, defaultFileConfig.CalibrationMode)
}

func (f *File) RangingMode() string { return or(f.raw().RangingMode, defaultFileConfig.RangingMode) }

func (f *File) Retries() int { return or(f.raw().Retries, defaultFileConfig.Retries) }

// RetryInterval is the delay between bring-up attempts.
func (f *File) RetryInterval() time.Duration {
	d, err := parseDuration(f.raw().RetryInterval)
	if err != nil || f.raw().RetryInterval == nil {
		d, _ = parseDuration(defaultFileConfig.RetryInterval)
	}
	return d
}

// MQTTBroker is the broker URL; empty disables publishing.
func (f *File) MQTTBroker() string { return or(f.raw().MQTTBroker, defaultFileConfig.MQTTBroker) }

// MQTTTopic is a format string receiving the sensor unique ID.
func (f *File) MQTTTopic() string { return or(f.raw().MQTTTopic, defaultFileConfig.MQTTTopic) }

func (f *File) MQTTClientID() string {
	return or(f.raw().MQTTClientID, defaultFileConfig.MQTTClientID)
}

// Database is the SQLite file path; empty disables logging samples.
func (f *File) Database() string { return or(f.raw().Database, defaultFileConfig.Database) }

func parseDuration(s *string) (time.Duration, error) {
	if s == nil {
		return 0, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "invalid retryInterval %q", *s)
	}
	return d, nil
}
