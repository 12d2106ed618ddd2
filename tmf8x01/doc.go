// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tmf8x01 controls ams TMF8801 and TMF8701 time-of-flight distance
// sensors over I²C.
//
// The TMF8801 ranges from 20cm to 240cm. The TMF8701 has three ranging modes:
// proximity (0 to 10cm), distance (10 to 60cm) and both combined.
//
// A Dev goes through a measurement session: Begin brings the sensor up and
// reads its identity, StartMeasurement pushes the calibration and starts
// free-running ranging cycles, IsDataReady reports each completed cycle once
// and DistanceMM reads it. StopMeasurement ends the session.
//
// Calibration data is captured once per device with CalibrationData, kept
// off-device (see package calibration) and set with SetCalibrationData before
// every session.
//
// The INT output of the sensor can be watched with EnableIntPin so that
// WaitForSample and SenseContinuous wake up on falling edges instead of
// polling.
//
// Datasheet
//
// https://ams.com/documents/20143/36005/TMF8801_DS000574_4-00.pdf
package tmf8x01
